package labelworker

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

type labelQueueManager struct {
	NumMessages  uint `json:"messages"`
	NumConsumers uint `json:"consumers"`
	MessageBytes uint `json:"message_bytes"`
}

type labelResManager struct {
	MemLimit uint64 `json:"mem_limit"`
	MemUsed  uint64 `json:"mem_used"`
}

const (
	factorForMessageAccept uint   = 2
	memoryThreshold        uint64 = 95
	// the rabbit management api answers with small json documents
	resManagerAPIByteLimit = int64(1 << 20)
)

func newLabelQueueManager() *labelQueueManager {
	return &labelQueueManager{}
}

func newLabelResManager() []labelResManager {
	resManager := make([]labelResManager, 0)
	return resManager
}

var (
	queueManager *labelQueueManager
	resManager   []labelResManager
)

// checks if resources for incoming request are available
func CheckForAcceptRequest(urlQueue string, urlStat string, statusChanged bool) bool {

	isAvailable := false
	jsonQueueStat, err := url2bytes(urlQueue, resManagerAPIByteLimit)
	if err != nil {
		log.Error().Err(err).Str("component", "LABEL_RESMAN").Msg("can't get queue stats")
		return false
	}
	jsonResStat, err := url2bytes(urlStat, resManagerAPIByteLimit)
	if err != nil {
		log.Error().Caller().Err(err).Str("component", "LABEL_RESMAN").Msg("can't get RabbitMQ memory stats")
		return false
	}

	err = json.Unmarshal(jsonQueueStat, queueManager)
	if err != nil {
		log.Error().Caller().Err(err).Str("component", "LABEL_RESMAN").Msg("error unmarshaling json")
		log.Error().Err(err).Str("component", "LABEL_RESMAN").
			Str("body", string(jsonQueueStat))
		return false
	}

	err = json.Unmarshal(jsonResStat, &resManager)
	if err != nil {
		log.Error().Caller().Err(err).Str("component", "LABEL_RESMAN").Msg("error unmarshaling json")
		log.Error().Err(err).Str("component", "LABEL_RESMAN").
			Str("body", string(jsonResStat))
		return false
	}

	flagForResources := schedulerByMemoryLoad()
	flagForQueue := schedulerByWorkerNumber()
	if flagForQueue && flagForResources {
		isAvailable = true
	}

	if statusChanged {
		log.Info().Str("component", "LABEL_RESMAN").
			Uint("MessageBytes", queueManager.MessageBytes).
			Uint("NumConsumers", queueManager.NumConsumers).
			Uint("NumMessages", queueManager.NumMessages).
			Interface("resManager", resManager).
			Msg("LABEL_RESMAN stats")

		if isAvailable {
			log.Info().Str("component", "LABEL_RESMAN").Msg("label service is operational with free resources. We are ready to serve")
		} else {
			log.Info().Str("component", "LABEL_RESMAN").Msg("label service is alive but won't serve any requests. Workers are busy or not connected")
		}

	}

	return isAvailable
}

// computes the ratio of total available memory and used memory and returns a bool value if a threshold is reached
func schedulerByMemoryLoad() bool {
	resFlag := false
	var memTotalAvailable uint64
	var memTotalInUse uint64
	for k := range resManager {
		memTotalInUse += resManager[k].MemUsed
		memTotalAvailable += resManager[k].MemLimit
	}

	if memTotalInUse < ((memTotalAvailable * memoryThreshold) / 100) {
		resFlag = true
	}
	return resFlag
}

// if the number of messages in the queue is too high we should not accept new messages
func schedulerByWorkerNumber() bool {
	resFlag := false
	if (queueManager.NumMessages) < (queueManager.NumConsumers * factorForMessageAccept) {
		resFlag = true
	}
	return resFlag
}

// SetResManagerState polls the rabbit management api and flips
// ServiceCanAccept accordingly. Memory load of the broker and the ratio
// of queued messages to connected workers both gate intake. A draining
// daemon stays closed no matter what the broker reports.
func SetResManagerState(ampqAPIConfig RabbitConfig) {
	resManager = newLabelResManager()
	queueManager = newLabelQueueManager()
	var urlQueue, urlStat = "", ""
	urlQueue += ampqAPIConfig.AmqpAPIURI + ampqAPIConfig.APIPathQueue + ampqAPIConfig.APIQueueName
	urlStat += ampqAPIConfig.AmqpAPIURI + ampqAPIConfig.APIPathStats

	var boolValueChanged = false
	var boolNewValue = false
	var boolOldValue = true
	for {
		// only print the RESMAN output if the state has changed
		boolValueChanged = boolOldValue != boolNewValue
		if boolValueChanged {
			boolOldValue = boolNewValue
		}
		ServiceCanAcceptMu.Lock()
		if !AppStop {
			ServiceCanAccept = CheckForAcceptRequest(urlQueue, urlStat, boolValueChanged)
		}
		boolNewValue = ServiceCanAccept
		ServiceCanAcceptMu.Unlock()
		time.Sleep(1 * time.Second)
	}
}
