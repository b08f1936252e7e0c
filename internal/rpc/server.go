package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"runtime/debug"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/jaivikTh/nest-microsrv-kit/internal/logger"
	"github.com/jaivikTh/nest-microsrv-kit/internal/metrics"
	"github.com/jaivikTh/nest-microsrv-kit/pkg/apierror"
)

// HandlerFunc serves one named command. The returned value is sent back as JSON.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) (any, error)

type commandServer interface {
	execute(ctx context.Context, cmd *Command) (any, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*commandServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Execute", Handler: executeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "microshop/rpc",
}

func executeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(Command)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(commandServer).execute(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: executeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(commandServer).execute(ctx, req.(*Command))
	}
	return interceptor(ctx, in, info, handler)
}

// Server dispatches commands by name to registered handlers.
type Server struct {
	name     string
	grpc     *grpc.Server
	handlers map[string]HandlerFunc
	limiter  *rate.Limiter
	metrics  *metrics.Metrics
	log      *slog.Logger
}

type ServerOption func(*Server)

// WithAdmissionLimit caps the rate of commands the server starts. Callers
// wait for a slot until their deadline and are refused after that.
func WithAdmissionLimit(perSecond float64, burst int) ServerOption {
	return func(s *Server) {
		if perSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
		}
	}
}

func WithMetrics(m *metrics.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

func WithLogger(log *slog.Logger) ServerOption {
	return func(s *Server) {
		s.log = log
	}
}

func NewServer(name string, opts ...ServerOption) *Server {
	s := &Server{
		name:     name,
		handlers: make(map[string]HandlerFunc),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("service", name)

	s.grpc = grpc.NewServer(grpc.ChainUnaryInterceptor(
		s.recoveryInterceptor,
		s.requestContextInterceptor,
		s.loggingInterceptor,
		s.admissionInterceptor,
	))
	s.grpc.RegisterService(&serviceDesc, s)

	return s
}

// Register binds name to fn. Registration must finish before Serve.
func (s *Server) Register(name string, fn HandlerFunc) {
	if _, exists := s.handlers[name]; exists {
		panic(fmt.Sprintf("rpc: command %q registered twice", name))
	}
	s.handlers[name] = fn
}

// Handle registers a handler whose payload is decoded into T first.
func Handle[T any](s *Server, name string, fn func(ctx context.Context, in T) (any, error)) {
	s.Register(name, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var in T
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &in); err != nil {
				return nil, apierror.Wrap(apierror.KindBadRequest, err, "malformed command payload")
			}
		}
		return fn(ctx, in)
	})
}

func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("rpc server listening", "address", lis.Addr().String(), "commands", len(s.handlers))
	return s.grpc.Serve(lis)
}

// GracefulStop waits for in-flight commands, or stops hard once ctx ends.
func (s *Server) GracefulStop(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("graceful stop timed out, closing connections")
		s.grpc.Stop()
	}
}

func (s *Server) execute(ctx context.Context, cmd *Command) (any, error) {
	h, ok := s.handlers[cmd.Name]
	if !ok {
		return nil, status.Errorf(codes.Unimplemented, "unknown command %q", cmd.Name)
	}

	result, err := h(ctx, cmd.Payload)
	if err != nil {
		return nil, s.fail(ctx, cmd.Name, err)
	}

	return result, nil
}

// fail converts err to a status and attaches the kind trailer.
func (s *Server) fail(ctx context.Context, command string, err error) error {
	apiErr := apierror.From(err)
	if apiErr.Kind == apierror.KindInternal {
		s.log.ErrorContext(ctx, "command failed", "command", command, "error", err)
	}

	st, trailer := toStatus(apiErr)
	if terr := grpc.SetTrailer(ctx, trailer); terr != nil {
		s.log.WarnContext(ctx, "failed to set error trailer", "error", terr)
	}
	return st
}

func (s *Server) recoveryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.ErrorContext(ctx, "panic recovered",
				"error", rec,
				"method", info.FullMethod,
				"stack", string(debug.Stack()),
			)
			err = s.fail(ctx, commandName(req), apierror.Internal("Internal server error", fmt.Errorf("panic: %v", rec)))
		}
	}()

	return handler(ctx, req)
}

func (s *Server) requestContextInterceptor(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(requestIDHeader); len(ids) > 0 && ids[0] != "" {
			ctx = logger.WithRequestID(ctx, ids[0])
		}
	}
	return handler(ctx, req)
}

func (s *Server) loggingInterceptor(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	command := commandName(req)

	resp, err := handler(ctx, req)

	outcome := status.Code(err).String()
	s.metrics.ObserveCommand(command, outcome)
	s.log.DebugContext(ctx, "command handled",
		"command", command,
		"outcome", outcome,
		"duration", time.Since(start).String(),
	)

	return resp, err
}

func (s *Server) admissionInterceptor(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			s.metrics.ObserveThrottled()
			return nil, s.fail(ctx, commandName(req), apierror.Internal("Service is busy. Please try again later.", err))
		}
	}
	return handler(ctx, req)
}

func commandName(req any) string {
	if cmd, ok := req.(*Command); ok {
		return cmd.Name
	}
	return "unknown"
}
