package giftbuilder

// Step is the wizard position.
type Step int

const (
	StepChooseBox   Step = 1
	StepAddProducts Step = 2
	StepReview      Step = 3
	StepCheckout    Step = 4
)

func (s Step) String() string {
	switch s {
	case StepChooseBox:
		return "choose-box"
	case StepAddProducts:
		return "add-products"
	case StepReview:
		return "review"
	case StepCheckout:
		return "checkout"
	default:
		return "unknown"
	}
}
