package domain

import "errors"

var (
	// ErrBankEmpty is returned when a question source holds no questions.
	ErrBankEmpty = errors.New("question bank is empty")
	// ErrBankInvalid indicates malformed question content.
	ErrBankInvalid = errors.New("question bank is invalid")
	// ErrSetNotFound indicates the requested question set does not exist.
	ErrSetNotFound = errors.New("question set not found")
	// ErrUnknownParticipant is returned when a connection acts before joining.
	ErrUnknownParticipant = errors.New("participant not found in room")
	// ErrDuplicateAnswer is returned on a second submission for the same question.
	ErrDuplicateAnswer = errors.New("answer already submitted for this question")
	// ErrLateAnswer is returned when a submission arrives after the deadline.
	ErrLateAnswer = errors.New("answer submitted after the deadline")
	// ErrInvalidTransition is returned for actions outside their guarding phase.
	ErrInvalidTransition = errors.New("action not valid in current phase")
	// ErrInvalidName is returned when a join carries an empty display name.
	ErrInvalidName = errors.New("display name is empty")
	// ErrUnknownAction is returned for an unrecognized presenter action.
	ErrUnknownAction = errors.New("unknown presenter action")
)
