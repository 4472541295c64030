package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	. "github.com/alexdcox/cardano-wallet"
	"github.com/alexdcox/cardano-wallet/rpcclient"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DefaultRequestTimeout bounds every backend round trip made for one request
// when the config leaves it unset. It stays below the rpcclient timeout.
const DefaultRequestTimeout = 20 * time.Second

func NewHttpRpcServer(config *_config, chain ChainQuery) (server *HttpRpcServer, err error) {
	network := Network(config.Network)
	if err = network.Validate(); err != nil {
		return
	}

	server = &HttpRpcServer{
		config:         config,
		chain:          chain,
		ledger:         NewCborLedger(),
		network:        network,
		paymentConfig:  DefaultPaymentConfig(),
		requestTimeout: config.RequestTimeout,
	}
	if server.requestTimeout <= 0 {
		server.requestTimeout = DefaultRequestTimeout
	}

	server.app = fiber.New(fiber.Config{
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           120 * time.Second,
		DisableStartupMessage: true,
	})
	server.app.Use(recover.New())
	server.app.Use(func(c *fiber.Ctx) error {
		requestId := c.Get(rpcclient.RequestIdHeader)
		if requestId == "" {
			requestId = uuid.NewString()
		}
		c.Set(rpcclient.RequestIdHeader, requestId)

		rsp := c.Next()
		log.Info().Msgf("http response: [%d] %s %s - %s %s", c.Response().StatusCode(), requestId, c.IP(), c.Method(), c.Path())
		return rsp
	})

	server.app.Post("/transaction/simple-payment/build", server.postSimplePaymentBuild)
	server.app.Post("/tools/min-utxo", server.postMinUtxo)
	server.app.Post("/tools/chunk-message", server.postChunkMessage)
	server.app.Get("/status", server.getStatus)

	return
}

type HttpRpcServer struct {
	app            *fiber.App
	chain          ChainQuery
	ledger         LedgerToolkit
	config         *_config
	network        Network
	paymentConfig  PaymentConfig
	requestTimeout time.Duration
}

func (s *HttpRpcServer) Start() (err error) {
	log.Info().Msgf("http/rpc server listening on %s", s.config.HostPort)

	return errors.WithStack(s.app.Listen(s.config.HostPort))
}

func (s *HttpRpcServer) Stop() (err error) {
	return errors.WithStack(s.app.Shutdown())
}

// requestContext derives the context backend calls run under. fiber's user
// context is never cancelled on its own, so the deadline is the only bound.
func (s *HttpRpcServer) requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), s.requestTimeout)
}

func (s *HttpRpcServer) errorResponse(c *fiber.Ctx, err error) error {
	statusCode := http.StatusInternalServerError
	reportedErr := ErrUnhandled
	details := ErrUnhandled.Error()

	switch Classify(err) {
	case CategoryInvalidOptions:
		statusCode, reportedErr = http.StatusBadRequest, ErrInvalidOptions
	case CategoryInsufficientBalance:
		statusCode, reportedErr = http.StatusUnprocessableEntity, ErrInsufficientBalance
	case CategoryInsufficientAssets:
		statusCode, reportedErr = http.StatusUnprocessableEntity, ErrInsufficientAssets
	case CategoryBackendUnavailable:
		statusCode, reportedErr = http.StatusBadGateway, ErrBackendUnavailable
	case CategoryCancelled:
		statusCode, reportedErr = http.StatusGatewayTimeout, ErrCancelled
	}

	if reportedErr != ErrUnhandled {
		details = UserMessage(err)
	}

	log.Debug().Str("stack", StackTracerMessage(err)).Msg(err.Error())

	return c.Status(statusCode).JSON(rpcclient.RpcError{
		Err:     reportedErr.Error(),
		Details: details,
	})
}

func (s *HttpRpcServer) unmarshalJson(c *fiber.Ctx, target any) (err error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		return errors.Wrap(ErrInvalidOptions, "expected an application/json body")
	}

	if err = c.BodyParser(target); err != nil {
		return errors.Wrap(ErrInvalidOptions, err.Error())
	}

	return
}

func (s *HttpRpcServer) postSimplePaymentBuild(c *fiber.Ctx) error {
	in := &PaymentRequest{}
	if err := s.unmarshalJson(c, in); err != nil {
		return s.errorResponse(c, err)
	}

	if in.Network == "" {
		in.Network = string(s.network)
	}

	payment, validation := in.Validate(s.paymentConfig)

	if network := Network(strings.ToLower(strings.TrimSpace(in.Network))); network.Valid() && network != s.network {
		validation.Add("network '%s' is not served here, this server builds for %s", network, s.network)
	}
	if in.OutFile != "" {
		validation.Add("outFile cannot be written over http")
	}
	if in.Submit && !s.config.AllowSubmit {
		validation.Add("submit is disabled on this server")
	}

	if err := validation.Err(); err != nil {
		return s.errorResponse(c, err)
	}

	assembler := NewPaymentAssembler(s.paymentConfig, s.chain, s.ledger, log)

	ctx, cancel := s.requestContext(c)
	defer cancel()

	result, err := assembler.Assemble(ctx, payment)
	if err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(result)
}

func (s *HttpRpcServer) postMinUtxo(c *fiber.Ctx) error {
	in := &rpcclient.MinUtxoIn{}
	if err := s.unmarshalJson(c, in); err != nil {
		return s.errorResponse(c, err)
	}

	for _, asset := range in.Assets {
		if err := asset.Id().Validate(); err != nil {
			return s.errorResponse(c, errors.Wrap(ErrInvalidOptions, err.Error()))
		}
	}

	value, err := NewBalance(0, in.Assets...)
	if err != nil {
		return s.errorResponse(c, errors.Wrap(ErrInvalidOptions, err.Error()))
	}

	lovelace := value.MinUtxoLovelace(MinUtxoParams{
		LovelacePerWord: in.LovelacePerWord,
		HasDataHash:     in.HasDataHash,
	})

	return c.JSON(rpcclient.MinUtxoOut{
		Lovelace: lovelace,
		Ada:      FormatAda(lovelace),
	})
}

func (s *HttpRpcServer) postChunkMessage(c *fiber.Ctx) error {
	in := &rpcclient.ChunkMessageIn{}
	if err := s.unmarshalJson(c, in); err != nil {
		return s.errorResponse(c, err)
	}

	if in.Message == "" {
		return s.errorResponse(c, errors.Wrap(ErrInvalidOptions, "message is required"))
	}
	if in.MaxLength < 0 {
		return s.errorResponse(c, errors.Wrapf(ErrInvalidOptions, "maxLength must not be negative, got %d", in.MaxLength))
	}

	maxLength := in.MaxLength
	if maxLength == 0 {
		maxLength = s.paymentConfig.MaxMetadataStringLength
	}

	return c.JSON(rpcclient.ChunkMessageOut{
		Chunks:   ChunkString(in.Message, maxLength),
		Metadata: MessageAuxData(s.paymentConfig.MetadataLabel, in.Message, maxLength),
	})
}

func (s *HttpRpcServer) getStatus(c *fiber.Ctx) error {
	ctx, cancel := s.requestContext(c)
	defer cancel()

	tip, err := s.chain.GetChainTip(ctx)
	if err != nil {
		return s.errorResponse(c, statusError(ctx, err, "failed to get chain tip"))
	}

	protocol, err := s.chain.GetProtocolParameters(ctx, tip.Epoch)
	if err != nil {
		return s.errorResponse(c, statusError(ctx, err, "failed to get protocol parameters"))
	}

	return c.JSON(rpcclient.GetStatusOut{
		Network:  s.network,
		Tip:      tip,
		Protocol: protocol,
	})
}

func statusError(ctx context.Context, err error, msg string) error {
	if ctx.Err() != nil {
		return errors.Wrapf(ErrCancelled, "%s: %v", msg, err)
	}
	return errors.Wrapf(ErrBackendUnavailable, "%s: %v", msg, err)
}
