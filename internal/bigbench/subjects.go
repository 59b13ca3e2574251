// Package bigbench describes the BigBench-Hard benchmark: its subjects, the
// on-disk dataset layout, few-shot chain-of-thought prompt files and the
// records persisted by a run.
package bigbench

import "slices"

// AllSubjects selects every subject.
const AllSubjects = "all"

// Subjects are the BigBench-Hard tasks in canonical order.
var Subjects = []string{
	"boolean_expressions",
	"causal_judgement",
	"date_understanding",
	"disambiguation_qa",
	"dyck_languages",
	"formal_fallacies",
	"geometric_shapes",
	"hyperbaton",
	"logical_deduction_five_objects",
	"logical_deduction_seven_objects",
	"logical_deduction_three_objects",
	"movie_recommendation",
	"multistep_arithmetic_two",
	"navigate",
	"object_counting",
	"penguins_in_a_table",
	"reasoning_about_colored_objects",
	"ruin_names",
	"salient_translation_error_detection",
	"snarks",
	"sports_understanding",
	"temporal_sequences",
	"tracking_shuffled_objects_five_objects",
	"tracking_shuffled_objects_seven_objects",
	"tracking_shuffled_objects_three_objects",
	"web_of_lies",
	"word_sorting",
}

// ResolveSubjects expands "all" to every subject or validates a single name.
func ResolveSubjects(name string) ([]string, error) {
	if name == AllSubjects {
		return slices.Clone(Subjects), nil
	}
	if slices.Contains(Subjects, name) {
		return []string{name}, nil
	}
	return nil, &UnknownSubjectError{Name: name}
}

// UnknownSubjectError is returned for a subject outside Subjects.
type UnknownSubjectError struct {
	Name string
}

func (e *UnknownSubjectError) Error() string {
	return "unknown BigBench subject: " + e.Name
}
