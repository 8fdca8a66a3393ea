package labelworker

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"
)

// RPCResponseTimeout bounds how long the client waits for a worker
// reply. Formatting a single label is a matter of seconds, anything
// beyond this means the queue is wedged or no worker is connected.
const RPCResponseTimeout = time.Minute * 2

type LabelRpcClient struct {
	rabbitConfig RabbitConfig
	connection   *amqp.Connection
	channel      *amqp.Channel
}

func NewLabelRpcClient(rc RabbitConfig) (*LabelRpcClient, error) {
	labelRpcClient := &LabelRpcClient{
		rabbitConfig: rc,
	}
	return labelRpcClient, nil
}

// FormatLabel ships the request to a worker over rabbit and waits for
// the reply. Deferred requests return immediately with status
// "processing", the result is claimed later via the status endpoint or
// pushed to the reply_to address.
func (c *LabelRpcClient) FormatLabel(labelRequest *LabelRequest, requestID string) (LabelResult, error) {
	var err error

	correlationUUID := uuid.NewString()

	if amqpURL, err := url.Parse(c.rabbitConfig.AmqpURI); err == nil {
		log.Info().Str("component", "LABEL_CLIENT").
			Str("RequestID", requestID).
			Str("amqp", StripPasswordFromUrl(amqpURL)).
			Msg("dialing rabbitMq")
	}
	c.connection, err = amqp.Dial(c.rabbitConfig.AmqpURI)
	if err != nil {
		return LabelResult{}, err
	}
	// if we close the connection here, the deferred status wont get the
	// label result and will be always returning "processing"
	// defer c.connection.Close()

	c.channel, err = c.connection.Channel()
	if err != nil {
		return LabelResult{}, err
	}

	if err := c.channel.ExchangeDeclare(
		c.rabbitConfig.Exchange,     // name
		c.rabbitConfig.ExchangeType, // type
		true,                        // durable
		false,                       // auto-deleted
		false,                       // internal
		false,                       // noWait
		nil,                         // arguments
	); err != nil {
		return LabelResult{}, err
	}

	rpcResponseChan := make(chan LabelResult, 1)

	callbackQueue, err := c.subscribeCallbackQueue(correlationUUID, rpcResponseChan)
	if err != nil {
		return LabelResult{}, err
	}

	// Reliable publisher confirms require confirm.select support from the
	// connection.
	if c.rabbitConfig.Reliable {
		if err := c.channel.Confirm(false); err != nil {
			return LabelResult{}, err
		}

		ack, nack := c.channel.NotifyConfirm(make(chan uint64, 1), make(chan uint64, 1))

		defer confirmDelivery(ack, nack)
	}

	// the worker gets the raw document in the message body, resolve the
	// url or base64 source before publishing
	if err := labelRequest.resolveBytes(); err != nil {
		return LabelResult{}, err
	}

	priority := c.rabbitConfig.QueuePrio["standard"]
	mediaType := detectMediaType(labelRequest.DocBytes)
	if prio, ok := c.rabbitConfig.QueuePrio[strings.ToLower(mediaType.String())]; ok {
		priority = prio
	}

	labelRequestJSON, err := json.Marshal(labelRequest)
	if err != nil {
		return LabelResult{}, err
	}

	log.Info().Str("component", "LABEL_CLIENT").
		Str("RequestID", requestID).
		Str("routingKey", c.rabbitConfig.RoutingKey).
		Uint8("priority", priority).
		Int("msg_size", len(labelRequestJSON)).
		Msg("publishing label request")

	if err = c.channel.Publish(
		c.rabbitConfig.Exchange, // publish to an exchange
		c.rabbitConfig.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			Headers:         amqp.Table{},
			ContentType:     "application/json",
			ContentEncoding: "",
			Body:            labelRequestJSON,
			DeliveryMode:    amqp.Transient, // 1=non-persistent, 2=persistent
			Priority:        priority,       // 0-9
			ReplyTo:         callbackQueue.Name,
			CorrelationId:   correlationUUID,
		},
	); err != nil {
		return LabelResult{}, err
	}

	switch {
	case labelRequest.Deferred && labelRequest.ReplyTo != "":
		if _, err := checkURLForReplyTo(labelRequest.ReplyTo); err != nil {
			return LabelResult{}, err
		}
		log.Info().Str("component", "LABEL_CLIENT").
			Str("RequestID", requestID).
			Str("replyTo", labelRequest.ReplyTo).
			Msg("deferred request, result will be posted back")
		go c.postBackWhenDone(rpcResponseChan, labelRequest.ReplyTo, requestID)
		return LabelResult{RequestID: requestID, Status: StatusProcessing}, nil
	case labelRequest.Deferred:
		log.Info().Str("component", "LABEL_CLIENT").
			Str("RequestID", requestID).
			Msg("deferred request, result will be claimable by id")
		registerInFlight(requestID, rpcResponseChan)
		return LabelResult{RequestID: requestID, Status: StatusProcessing}, nil
	default:
		labelResult, ok := CheckReply(rpcResponseChan, RPCResponseTimeout)
		if !ok {
			return errorLabelResult(requestID, NewLabelError(ProcessingTimeout, "timeout waiting for rpc response")), nil
		}
		return labelResult, nil
	}
}

func (c *LabelRpcClient) subscribeCallbackQueue(correlationUUID string, rpcResponseChan chan LabelResult) (amqp.Queue, error) {

	// declare a callback queue where we will receive rpc responses
	callbackQueue, err := c.channel.QueueDeclare(
		"",    // name -- let rabbit generate a random one
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // noWait
		nil,   // arguments
	)
	if err != nil {
		return amqp.Queue{}, err
	}

	// bind the callback queue to an exchange + routing key
	if err = c.channel.QueueBind(
		callbackQueue.Name,      // name of the queue
		callbackQueue.Name,      // bindingKey
		c.rabbitConfig.Exchange, // sourceExchange
		false,                   // noWait
		nil,                     // arguments
	); err != nil {
		return amqp.Queue{}, err
	}

	log.Debug().Str("component", "LABEL_CLIENT").
		Str("callbackQueue", callbackQueue.Name).
		Msg("callback queue declared")

	deliveries, err := c.channel.Consume(
		callbackQueue.Name, // name
		tag,                // consumerTag,
		true,               // noAck
		true,               // exclusive
		false,              // noLocal
		false,              // noWait
		nil,                // arguments
	)
	if err != nil {
		return amqp.Queue{}, err
	}

	go c.handleRpcResponse(deliveries, correlationUUID, rpcResponseChan)

	return callbackQueue, nil

}

func (c *LabelRpcClient) handleRpcResponse(deliveries <-chan amqp.Delivery, correlationUUID string, rpcResponseChan chan LabelResult) {
	log.Debug().Str("component", "LABEL_CLIENT").Msg("looping over deliveries..")
	for d := range deliveries {
		if d.CorrelationId != correlationUUID {
			log.Debug().Str("component", "LABEL_CLIENT").
				Str("CorrelationId", d.CorrelationId).
				Msg("ignoring delivery with foreign correlation id")
			continue
		}

		defer c.connection.Close()
		log.Info().Str("component", "LABEL_CLIENT").
			Str("CorrelationId", d.CorrelationId).
			Int("msg_size", len(d.Body)).
			Msg("got rpc response delivery")

		var labelResult LabelResult
		if err := json.Unmarshal(d.Body, &labelResult); err != nil {
			log.Error().Err(err).Str("component", "LABEL_CLIENT").
				Str("CorrelationId", d.CorrelationId).
				Msg("worker reply was not valid json")
			labelResult = errorLabelResult("", NewLabelError(EncodingError, "worker reply could not be decoded"))
		}

		rpcResponseChan <- labelResult
		return
	}
}

func (c *LabelRpcClient) postBackWhenDone(rpcResponseChan chan LabelResult, replyToAddress string, requestID string) {
	labelResult, ok := CheckReply(rpcResponseChan, RPCResponseTimeout)
	if !ok {
		labelResult = errorLabelResult(requestID, NewLabelError(ProcessingTimeout, "timeout waiting for rpc response"))
	}
	if err := NewLabelPostClient().postLabelResult(labelResult, replyToAddress); err != nil {
		log.Error().Err(err).Str("component", "LABEL_CLIENT").
			Str("RequestID", requestID).
			Str("replyTo", replyToAddress).
			Msg("result could not be posted back")
	}
}

// CheckReply waits on the response channel until the worker answers or
// the timeout lapses, the second return tells which one happened.
func CheckReply(rpcResponseChan chan LabelResult, timeout time.Duration) (LabelResult, bool) {
	log.Debug().Str("component", "LABEL_CLIENT").Msg("Checking for response")
	select {
	case labelResult := <-rpcResponseChan:
		return labelResult, true
	case <-time.After(timeout):
		return LabelResult{}, false
	}
}

func confirmDelivery(ack, nack chan uint64) {
	select {
	case tag := <-ack:
		log.Info().Str("component", "LABEL_CLIENT").Uint64("tag", tag).
			Msg("confirmed delivery")
	case tag := <-nack:
		log.Warn().Str("component", "LABEL_CLIENT").Uint64("tag", tag).
			Msg("failed to confirm delivery")
	}
}
