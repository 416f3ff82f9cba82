package market

// OrderState implements the state pattern for order lifecycle transitions.
type OrderState interface {
	Status() Status
	OnShip(o *Order) (OrderState, error)
	OnReceive(o *Order) (OrderState, error)
	OnCancelRequest(o *Order, p Party) (OrderState, error)
}

func stateFor(s Status) OrderState {
	switch s {
	case StatusPending:
		return pendingState{}
	case StatusShipped:
		return shippedState{}
	case StatusReceived:
		return receivedState{}
	default:
		return cancelledState{}
	}
}

type pendingState struct{}

func (pendingState) Status() Status { return StatusPending }

func (pendingState) OnShip(*Order) (OrderState, error) {
	return shippedState{}, nil
}

func (pendingState) OnReceive(*Order) (OrderState, error) {
	return nil, ErrWrongState
}

// OnCancelRequest lets the buyer open a cancellation and the seller close it.
// The seller cannot cancel on their own.
func (pendingState) OnCancelRequest(o *Order, p Party) (OrderState, error) {
	switch p {
	case PartyBuyer:
		if o.Cancel.Buyer {
			return nil, ErrAlreadyRequested
		}
		o.Cancel.Buyer = true
		return pendingState{}, nil
	case PartySeller:
		if !o.Cancel.Buyer {
			return nil, ErrBuyerHasNotConsented
		}
		o.Cancel.Seller = true
		return cancelledState{}, nil
	default:
		return nil, ErrNotParticipant
	}
}

type shippedState struct{}

func (shippedState) Status() Status { return StatusShipped }

func (shippedState) OnShip(*Order) (OrderState, error) {
	return nil, ErrWrongState
}

func (shippedState) OnReceive(*Order) (OrderState, error) {
	return receivedState{}, nil
}

func (shippedState) OnCancelRequest(*Order, Party) (OrderState, error) {
	return nil, ErrNotCancellable
}

type receivedState struct{}

func (receivedState) Status() Status { return StatusReceived }

func (receivedState) OnShip(*Order) (OrderState, error) {
	return nil, ErrWrongState
}

func (receivedState) OnReceive(*Order) (OrderState, error) {
	return nil, ErrWrongState
}

func (receivedState) OnCancelRequest(*Order, Party) (OrderState, error) {
	return nil, ErrNotCancellable
}

type cancelledState struct{}

func (cancelledState) Status() Status { return StatusCancelled }

func (cancelledState) OnShip(*Order) (OrderState, error) {
	return nil, ErrWrongState
}

func (cancelledState) OnReceive(*Order) (OrderState, error) {
	return nil, ErrWrongState
}

func (cancelledState) OnCancelRequest(*Order, Party) (OrderState, error) {
	return nil, ErrNotCancellable
}
