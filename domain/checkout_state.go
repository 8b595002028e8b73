package domain

type CheckoutState string

const (
	CheckoutStateIdle                    CheckoutState = "IDLE"
	CheckoutStateAddressRequired         CheckoutState = "ADDRESS_REQUIRED"
	CheckoutStateReadyToPay              CheckoutState = "READY_TO_PAY"
	CheckoutStateSubmitting              CheckoutState = "SUBMITTING"
	CheckoutStateAwaitingGatewayCallback CheckoutState = "AWAITING_GATEWAY_CALLBACK"
	CheckoutStateSettling                CheckoutState = "SETTLING"
	CheckoutStateCompleted               CheckoutState = "COMPLETED"
	CheckoutStateFailed                  CheckoutState = "FAILED"
)

var transitions = map[CheckoutState][]CheckoutState{
	CheckoutStateIdle:                    {CheckoutStateAddressRequired, CheckoutStateReadyToPay},
	CheckoutStateAddressRequired:         {CheckoutStateIdle, CheckoutStateReadyToPay},
	CheckoutStateReadyToPay:              {CheckoutStateIdle, CheckoutStateAddressRequired, CheckoutStateSubmitting},
	CheckoutStateSubmitting:              {CheckoutStateAwaitingGatewayCallback, CheckoutStateCompleted, CheckoutStateFailed},
	CheckoutStateAwaitingGatewayCallback: {CheckoutStateSettling},
	CheckoutStateSettling:                {CheckoutStateCompleted, CheckoutStateFailed},
	CheckoutStateCompleted:               {CheckoutStateIdle, CheckoutStateAddressRequired, CheckoutStateReadyToPay},
	CheckoutStateFailed:                  {CheckoutStateIdle, CheckoutStateAddressRequired, CheckoutStateReadyToPay, CheckoutStateSubmitting},
}

func CanTransitionTo(from, to CheckoutState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutStateCompleted || s == CheckoutStateFailed
}

// InFlight reports whether a submission owns the flow.
func (s CheckoutState) InFlight() bool {
	return s == CheckoutStateSubmitting || s == CheckoutStateAwaitingGatewayCallback || s == CheckoutStateSettling
}

// String representation (for logging)
func (s CheckoutState) String() string {
	return string(s)
}
