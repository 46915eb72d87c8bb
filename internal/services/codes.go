package services

// Machine-readable error codes surfaced in problem documents. PRE_* failures
// never reach the answer store; RUN_* report a failed step of an otherwise
// valid operation; POST_* mark an assembled response that violated its own
// contract and must not be shipped.
const (
	CodeNameMissing = "PRE_NAME_MISSING"
	CodeNameTooLong = "PRE_NAME_TOO_LONG"

	CodeResponseSetIDMalformed = "PRE_RESPONSE_SET_ID_MALFORMED"
	CodeResponseSetIDUnknown   = "PRE_RESPONSE_SET_ID_UNKNOWN"
	CodeScreenKeyMalformed     = "PRE_SCREEN_KEY_MALFORMED"
	CodeScreenKeyUnknown       = "PRE_SCREEN_KEY_UNKNOWN"
	CodeQuestionIDMalformed    = "PRE_QUESTION_ID_MALFORMED"
	CodeQuestionIDUnknown      = "PRE_QUESTION_ID_UNKNOWN"

	CodeIfMatchMissing = "PRE_IF_MATCH_MISSING"
	CodeIfMatchStale   = "PRE_IF_MATCH_STALE"

	CodeAnswerBodyMalformed    = "PRE_ANSWER_PATCH_BODY_MALFORMED"
	CodeAnswerKindMismatch     = "PRE_ANSWER_PATCH_KIND_MISMATCH"
	CodeAnswerNumberNotFinite  = "PRE_ANSWER_PATCH_NUMBER_NOT_FINITE"
	CodeAnswerOptionUnresolved = "PRE_ANSWER_PATCH_OPTION_UNRESOLVED"
	CodeAnswerNoValue          = "PRE_ANSWER_PATCH_NO_VALUE"

	CodeBatchBodyMalformed = "PRE_BATCH_BODY_MALFORMED"
	CodeBatchEmpty         = "PRE_BATCH_EMPTY"
	CodeBatchModeInvalid   = "PRE_BATCH_MODE_INVALID"

	CodePersistenceFailure  = "RUN_PERSISTENCE_FAILURE"
	CodeVisibilityFailure   = "RUN_VISIBILITY_FAILURE"
	CodeEventPublishFailure = "RUN_EVENT_PUBLISH_FAILURE"

	CodeScreenViewInvalid = "POST_SCREEN_VIEW_INVALID"
)
