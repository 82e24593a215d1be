package domain

// PlaylistItem is one selected (word, exercise kind) pair of a quiz.
type PlaylistItem struct {
	Word     string
	Kind     ExerciseKind
	Priority int
	// ExerciseID pins a specific generated exercise; empty for flashcard kinds.
	ExerciseID string
}

// QuizResult is the outcome of one answered question.
type QuizResult struct {
	Word    string
	Kind    ExerciseKind
	Correct bool
}
