package labelworker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/ksuid"
	"github.com/streadway/amqp"
)

type LabelRpcWorker struct {
	serviceConfig ServiceConfig
	pipeline      *Pipeline
	conn          *amqp.Connection
	channel       *amqp.Channel
	tag           string
	Done          chan error
}

var (
	// tag is based on ksuid K-Sortable Globally Unique IDs
	tag = ksuid.New().String()
)

func NewLabelRpcWorker(sc ServiceConfig) (*LabelRpcWorker, error) {
	labelRpcWorker := &LabelRpcWorker{
		serviceConfig: sc,
		pipeline:      NewPipeline(sc.Rasterizer, sc.SaveFiles),
		conn:          nil,
		channel:       nil,
		tag:           tag,
		Done:          make(chan error),
	}
	if labelRpcWorker.pipeline.Loader.Rasterizer == nil {
		return nil, fmt.Errorf("unknown rasterizer %q", sc.Rasterizer)
	}
	return labelRpcWorker, nil
}

func (w *LabelRpcWorker) Run() error {

	var err error
	queueArgs := make(amqp.Table)
	queueArgs["x-max-priority"] = uint8(9)

	log.Info().
		Str("component", "LABEL_WORKER").
		Str("tag", tag).
		Msg("Run() called...")

	log.Info().
		Str("component", "LABEL_WORKER").
		Str("tag", tag).
		Str("host", w.serviceConfig.AmqpURI).
		Msg("dialing rabbitMq")

	w.conn, err = amqp.Dial(w.serviceConfig.AmqpURI)
	if err != nil {
		log.Warn().
			Str("component", "LABEL_WORKER").
			Err(err).
			Str("tag", tag).
			Msg("error connecting to rabbitMq")
		return err
	}

	go func() {
		log.Warn().Str("component", "LABEL_WORKER").
			Str("tag", tag).
			Msgf("closing: %s", <-w.conn.NotifyClose(make(chan *amqp.Error)))
	}()

	log.Info().Str("component", "LABEL_WORKER").
		Str("tag", tag).
		Msg("got Connection, getting channel")
	w.channel, err = w.conn.Channel()
	if err != nil {
		return err
	}
	// setting the prefetchCount to 1 reduces the memory consumption by the worker
	err = w.channel.Qos(1, 0, true)
	if err != nil {
		return err
	}

	if err = w.channel.ExchangeDeclare(
		w.serviceConfig.Exchange,     // name of the exchange
		w.serviceConfig.ExchangeType, // type
		true,                         // durable
		false,                        // delete when complete
		false,                        // internal
		false,                        // noWait
		nil,                          // arguments
	); err != nil {
		return err
	}

	// just use the routing key as the queue name, since there's no reason
	// to have a different name
	queueName := w.serviceConfig.RoutingKey

	queue, err := w.channel.QueueDeclare(
		queueName, // name of the queue
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // noWait
		queueArgs, // arguments
	)
	if err != nil {
		return err
	}

	log.Info().Str("component", "LABEL_WORKER").Str("RoutingKey", w.serviceConfig.RoutingKey).
		Str("tag", tag).
		Msg("binding to routing key")

	if err = w.channel.QueueBind(
		queue.Name,                 // name of the queue
		w.serviceConfig.RoutingKey, // bindingKey
		w.serviceConfig.Exchange,   // sourceExchange
		false,                      // noWait
		queueArgs,                  // arguments
	); err != nil {
		return err
	}

	log.Info().Str("component", "LABEL_WORKER").Str("tag", tag).
		Msg("Queue bound to Exchange, starting Consume tag")
	deliveries, err := w.channel.Consume(
		queue.Name, // name
		tag,        // consumerTag,
		false,      // noAck
		false,      // exclusive
		false,      // noLocal
		false,      // noWait
		queueArgs,  // arguments
	)
	if err != nil {
		return err
	}

	go w.handle(deliveries, w.Done)

	return nil
}

func (w *LabelRpcWorker) Shutdown() error {
	// will close() the deliveries channel
	if err := w.channel.Cancel(w.tag, true); err != nil {
		return fmt.Errorf("worker with tag %s cancel failed: %s", tag, err)
	}

	if err := w.conn.Close(); err != nil {
		return fmt.Errorf("AMQP connection with worker %s close error: %s", tag, err)
	}

	defer log.Info().Str("component", "LABEL_WORKER").
		Str("tag", tag).
		Msg("Shutdown OK")

	// wait for handle() to exit
	return <-w.Done
}

func (w *LabelRpcWorker) handle(deliveries <-chan amqp.Delivery, done chan error) {
	for d := range deliveries {
		log.Info().Str("component", "LABEL_WORKER").
			Str("tag", tag).
			Int("msg_size", len(d.Body)).
			Uint8("DeliveryMode", d.DeliveryMode).
			Uint8("Priority", d.Priority).
			Str("CorrelationId", d.CorrelationId).
			Str("ReplyTo", d.ReplyTo).
			Str("ConsumerTag", d.ConsumerTag).
			Uint64("DeliveryTag", d.DeliveryTag).
			Str("Exchange", d.Exchange).
			Str("RoutingKey", d.RoutingKey).
			Msg("got delivery")

		labelResult, err := w.resultForDelivery(d)
		if err != nil {
			log.Error().Err(err).Str("component", "LABEL_WORKER").
				Str("tag", tag).
				Msg("Error generating label result")
		}

		err = w.sendRpcResponse(labelResult, d.ReplyTo, d.CorrelationId)
		if err != nil {
			log.Error().Err(err).Str("component", "LABEL_WORKER").
				Str("RequestID", labelResult.RequestID).
				Str("tag", tag).
				Msg("Error sending rpc response")

			// if we can't send our response, let's just abort
			done <- err
			break
		}
		err = d.Ack(false)
		if err != nil {
			log.Warn().Str("component", "LABEL_WORKER").Err(err).
				Str("tag", tag).
				Msg("Ack() was not successful")
		}

	}
	log.Info().Str("component", "LABEL_WORKER").
		Str("tag", tag).
		Msg("handle: deliveries channel closed")
	done <- fmt.Errorf("handle: deliveries channel closed")
}

// resultForDelivery runs the pipeline for one queued request. Failures
// come back inside the LabelResult so the client always gets a reply
// with the matching request id.
func (w *LabelRpcWorker) resultForDelivery(d amqp.Delivery) (LabelResult, error) {

	labelRequest := LabelRequest{Options: DefaultProcessingOptions()}
	err := json.Unmarshal(d.Body, &labelRequest)
	if err != nil {
		log.Error().Err(err).Caller().
			Str("CorrelationId", d.CorrelationId).
			Str("tag", tag).
			Msg("error unmarshalling json delivery")
		return errorLabelResult("", NewLabelError(CorruptDocument, "request was not valid json")), err
	}

	defer timeTrack(time.Now(), "formatDuration", "label request processed", labelRequest.RequestID)

	doc, err := labelRequest.sourceDocument()
	if err != nil {
		log.Warn().Err(err).Str("component", "LABEL_WORKER").
			Str("RequestID", labelRequest.RequestID).
			Str("tag", tag).
			Msg("could not resolve source document")
		return errorLabelResult(labelRequest.RequestID, err), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), labelRequest.Options.itemTimeout())
	defer cancel()

	labelResult := w.pipeline.Format(ctx, &doc, labelRequest.Options, labelRequest.RequestID)
	return labelResult, nil

}

func (w *LabelRpcWorker) sendRpcResponse(r LabelResult, replyTo string, correlationID string) error {

	if w.serviceConfig.Reliable {
		// Do not use serviceConfig.Reliable=true due to major issues
		// that will completely wedge the rpc worker.  Setting the
		// buffered channels length higher would delay the problem,
		// but then it would still happen later.
		if err := w.channel.Confirm(false); err != nil {
			return err
		}

		ack, nack := w.channel.NotifyConfirm(make(chan uint64, 100), make(chan uint64, 100))

		defer confirmDeliveryWorker(ack, nack)
	}

	log.Info().Str("component", "LABEL_WORKER").
		Str("tag", tag).
		Str("RequestID", r.RequestID).
		Str("replyTo", replyTo).Msg("sendRpcResponse to")

	body, err := json.Marshal(r)
	if err != nil {
		return err
	}

	if err := w.channel.Publish(
		w.serviceConfig.Exchange, // publish to an exchange
		replyTo,                  // routing to 0 or more queues
		false,                    // mandatory
		false,                    // immediate
		amqp.Publishing{
			Headers:         amqp.Table{},
			ContentType:     "application/json",
			ContentEncoding: "",
			Body:            body,
			DeliveryMode:    amqp.Transient, // 1=non-persistent, 2=persistent
			Priority:        0,              // 0-9
			CorrelationId:   correlationID,
		},
	); err != nil {
		return err
	}
	log.Info().Str("component", "LABEL_WORKER").
		Str("RequestID", r.RequestID).
		Str("tag", tag).
		Str("replyTo", replyTo).
		Msg("sendRpcResponse succeeded")
	return nil

}

func confirmDeliveryWorker(ack, nack chan uint64) {
	log.Info().Str("component", "LABEL_WORKER").
		Str("tag", tag).
		Msg("awaiting delivery confirmation...")
	select {
	case tag := <-ack:
		log.Info().Str("component", "LABEL_WORKER").Uint64("tag", tag).
			Msg("confirmed delivery")
	case tag := <-nack:
		log.Info().Str("component", "LABEL_WORKER").Uint64("tag", tag).
			Msg("failed to confirm delivery")
	case <-time.After(RPCResponseTimeout):
		// this is bad, the worker will probably be dysfunctional
		// at this point, so panic
		log.Panic().Str("component", "LABEL_WORKER").Msg("timeout trying to confirm delivery. Worker panic")
	}
}
