package rpc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"beerstock/pkg/beer/domain/model"
	"beerstock/pkg/beer/domain/service"
)

var _ BeerStockServer = (*Server)(nil)

type Server struct {
	service service.BeerService
	logger  log.FieldLogger
}

func NewServer(beerService service.BeerService, logger log.FieldLogger) *Server {
	return &Server{service: beerService, logger: logger}
}

// NewGRPCServer returns a grpc.Server serving the beer stock service and the standard health service.
func NewGRPCServer(beerService service.BeerService, logger log.FieldLogger) (*grpc.Server, *health.Server) {
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(logInterceptor(logger)))
	grpcServer.RegisterService(&ServiceDesc, NewServer(beerService, logger))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	return grpcServer, healthServer
}

func (s *Server) Register(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	fields := in.GetFields()
	candidate := model.Beer{
		Name:  stringField(fields, "name"),
		Brand: stringField(fields, "brand"),
		Type:  model.BeerType(stringField(fields, "type")),
	}
	var err error
	if candidate.Max, err = intField(fields, "max"); err != nil {
		return nil, err
	}
	if candidate.Quantity, err = intField(fields, "quantity"); err != nil {
		return nil, err
	}

	beer, err := s.service.Register(ctx, candidate)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return beerToStruct(*beer)
}

func (s *Server) FindByName(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	beer, err := s.service.FindByName(ctx, in.GetValue())
	if err != nil {
		return nil, s.toStatus(err)
	}
	return beerToStruct(*beer)
}

func (s *Server) List(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	beers, err := s.service.ListAll(ctx)
	if err != nil {
		return nil, s.toStatus(err)
	}

	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(beers))}
	for _, beer := range beers {
		item, err := beerToStruct(beer)
		if err != nil {
			return nil, err
		}
		list.Values = append(list.Values, structpb.NewStructValue(item))
	}
	return list, nil
}

func (s *Server) Delete(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	id, err := parseID(in.GetValue())
	if err != nil {
		return nil, err
	}
	if err := s.service.DeleteByID(ctx, id); err != nil {
		return nil, s.toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) Increment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.adjustStock(ctx, in, s.service.Increment)
}

func (s *Server) Decrement(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.adjustStock(ctx, in, s.service.Decrement)
}

func (s *Server) adjustStock(
	ctx context.Context,
	in *structpb.Struct,
	adjust func(context.Context, uuid.UUID, int) (*model.Beer, error),
) (*structpb.Struct, error) {
	fields := in.GetFields()
	id, err := parseID(stringField(fields, "id"))
	if err != nil {
		return nil, err
	}
	amount, err := intField(fields, "quantity")
	if err != nil {
		return nil, err
	}
	if amount < 0 {
		return nil, status.Error(codes.InvalidArgument, model.ErrInvalidAmount.Error())
	}

	beer, err := adjust(ctx, id, amount)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return beerToStruct(*beer)
}

func (s *Server) toStatus(err error) error {
	switch {
	case errors.Is(err, model.ErrBeerNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, model.ErrDuplicateName):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, model.ErrStockExceeded), errors.Is(err, model.ErrInsufficientStock):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, model.ErrInvalidBeer), errors.Is(err, model.ErrInvalidAmount):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, model.ErrOptimisticLock):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	s.logger.WithError(err).Error("beer stock call failed")
	return status.Error(codes.Internal, "internal error")
}

func logInterceptor(logger log.FieldLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.WithFields(log.Fields{
			"method":   info.FullMethod,
			"code":     status.Code(err).String(),
			"duration": time.Since(start).String(),
		}).Info("handled call")
		return resp, err
	}
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid beer id %q", raw)
	}
	return id, nil
}

func stringField(fields map[string]*structpb.Value, name string) string {
	return fields[name].GetStringValue()
}

func intField(fields map[string]*structpb.Value, name string) (int, error) {
	value, ok := fields[name]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	number, ok := value.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a number", name)
	}
	n := number.NumberValue
	if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a 32-bit integer", name)
	}
	return int(n), nil
}

func beerToStruct(beer model.Beer) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(map[string]any{
		"id":       beer.ID.String(),
		"name":     beer.Name,
		"brand":    beer.Brand,
		"type":     string(beer.Type),
		"max":      beer.Max,
		"quantity": beer.Quantity,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode beer: %v", err))
	}
	return out, nil
}

func structToBeer(in *structpb.Struct) (*model.Beer, error) {
	fields := in.GetFields()
	id, err := uuid.Parse(stringField(fields, "id"))
	if err != nil {
		return nil, fmt.Errorf("decode beer id: %w", err)
	}
	return &model.Beer{
		ID:       id,
		Name:     stringField(fields, "name"),
		Brand:    stringField(fields, "brand"),
		Type:     model.BeerType(stringField(fields, "type")),
		Max:      int(fields["max"].GetNumberValue()),
		Quantity: int(fields["quantity"].GetNumberValue()),
	}, nil
}
