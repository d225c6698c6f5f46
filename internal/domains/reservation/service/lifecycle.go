package service

import (
	"hallbooking/internal/domains/reservation/model"
	venueModel "hallbooking/internal/domains/venue/model"
)

// paymentTransitions maps a venue's confirmation policy and an incoming
// payment event to the status a pending reservation moves to. An absent
// entry means the event is acknowledged but does not advance the lifecycle
// under that policy; manual venues confirm only through staff action.
var paymentTransitions = map[venueModel.ConfirmationPolicy]map[model.PaymentKind]model.Status{
	venueModel.PolicyDeposit: {
		model.PaymentDeposit: model.StatusConfirmed,
	},
	venueModel.PolicyFullPayment: {
		model.PaymentFull: model.StatusConfirmed,
	},
}

// paymentTarget resolves the dispatch table. ok is false when the event does
// not trigger a transition under the given policy.
func paymentTarget(policy venueModel.ConfirmationPolicy, kind model.PaymentKind) (model.Status, bool) {
	targets, ok := paymentTransitions[policy]
	if !ok {
		return "", false
	}

	target, ok := targets[kind]

	return target, ok
}
