package labelworker

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
)

// ResponseCacheTimeout bounds how long a deferred result stays claimable
// before the registry evicts it.
const ResponseCacheTimeout = time.Minute * 60

var (
	requestsAndTimersMu deadlock.RWMutex
	// Requests is for holding and monitoring queued requests
	Requests = make(map[string]chan LabelResult)
	timers   = make(map[string]*time.Timer)
)

// registerInFlight parks the response channel of a deferred request so
// a later status poll can claim the result. The timer evicts abandoned
// entries, the registry must not grow without bound.
func registerInFlight(requestID string, rpcResponseChan chan LabelResult) {
	timer := time.NewTimer(ResponseCacheTimeout)
	requestsAndTimersMu.Lock()
	Requests[requestID] = rpcResponseChan
	timers[requestID] = timer
	requestsAndTimersMu.Unlock()

	go func() {
		<-timer.C
		log.Warn().Str("component", "LABEL_CLIENT").
			Str("RequestID", requestID).
			Msg("deferred result was never claimed, dropping it")
		dropInFlight(requestID)
	}()
}

// dropInFlight removes a request from the registry. The channel is left
// open, a late rpc reply lands in its buffer and gets collected with it.
func dropInFlight(requestID string) {
	requestsAndTimersMu.Lock()
	defer requestsAndTimersMu.Unlock()
	if timer, ok := timers[requestID]; ok {
		timer.Stop()
		delete(timers, requestID)
	}
	delete(Requests, requestID)
}

// PendingRequests reports how many deferred requests still wait to be
// claimed, the http daemon drains to zero before it exits.
func PendingRequests() int {
	requestsAndTimersMu.RLock()
	defer requestsAndTimersMu.RUnlock()
	return len(Requests)
}

// CheckLabelStatusByID gives a deferred request a short window to
// deliver. While the worker is still busy the caller keeps getting
// "processing", a final result drops the registry entry.
func CheckLabelStatusByID(requestID string) (LabelResult, error) {
	requestsAndTimersMu.RLock()
	rpcResponseChan, ok := Requests[requestID]
	requestsAndTimersMu.RUnlock()
	if !ok {
		return LabelResult{}, errors.Errorf("no such request %s", requestID)
	}

	labelResult, ok := CheckReply(rpcResponseChan, time.Second*2)
	if !ok {
		return LabelResult{RequestID: requestID, Status: StatusProcessing}, nil
	}

	dropInFlight(requestID)
	return labelResult, nil
}
