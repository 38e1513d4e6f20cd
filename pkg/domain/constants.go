package domain

// Presentation types understood without a defaults bundle.
const (
	// TypeJudgment presents a sentence on a rating scale.
	TypeJudgment = "AcceptabilityJudgment"
	// TypeForm presents an HTML form whose fields are checked by validators.
	TypeForm = "Form"
	// TypeMessage presents static HTML and waits for the participant to continue.
	TypeMessage = "Message"
)

// BuiltinTypes lists the presentation types accepted by the validator in strict mode.
var BuiltinTypes = []string{TypeJudgment, TypeForm, TypeMessage}

// Option keys with a known shape. They are used for typing default bundles.
const (
	OptScale           = "as"
	OptPresentAsScale  = "presentAsScale"
	OptInstructions    = "instructions"
	OptLeftComment     = "leftComment"
	OptRightComment    = "rightComment"
	OptHideProgressBar = "hideProgressBar"
	OptContinueOnEnter = "continueOnReturn"
	OptSaveRT          = "saveReactionTime"
	OptContinueMessage = "continueMessage"
)
