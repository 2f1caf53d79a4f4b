package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/moby/locker"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"beerstock/pkg/beer/domain/model"
	"beerstock/pkg/beer/domain/rules"
	"beerstock/pkg/common/domain"
)

const (
	tracerName = "beerstock/pkg/beer/domain/service"

	// dispatchTimeout bounds a publish that runs after the write has committed.
	dispatchTimeout = 5 * time.Second
)

type BeerService interface {
	Register(ctx context.Context, candidate model.Beer) (*model.Beer, error)
	FindByName(ctx context.Context, name string) (*model.Beer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Beer, error)
	ListAll(ctx context.Context) ([]model.Beer, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
	Increment(ctx context.Context, id uuid.UUID, amount int) (*model.Beer, error)
	Decrement(ctx context.Context, id uuid.UUID, amount int) (*model.Beer, error)
}

func NewBeerService(repo model.BeerRepository, dispatcher domain.EventDispatcher, logger log.FieldLogger) BeerService {
	return &beerService{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
		idLocks:    locker.New(),
		nameLocks:  locker.New(),
	}
}

type beerService struct {
	repo       model.BeerRepository
	dispatcher domain.EventDispatcher
	logger     log.FieldLogger
	tracer     trace.Tracer

	idLocks   *locker.Locker
	nameLocks *locker.Locker
}

func (s *beerService) Register(ctx context.Context, candidate model.Beer) (_ *model.Beer, err error) {
	ctx, span := s.startSpan(ctx, "Register", attribute.String("beer.name", candidate.Name))
	defer func() { endSpan(span, err) }()

	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	s.nameLocks.Lock(candidate.Name)
	defer s.nameLocks.Unlock(candidate.Name)

	existing, err := s.repo.FindByName(ctx, candidate.Name)
	if err != nil && !errors.Is(err, model.ErrBeerNotFound) {
		return nil, err
	}
	if err := rules.DecideRegistration(candidate.Name, existing); err != nil {
		return nil, err
	}

	beerID, err := s.repo.NextID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	beer := candidate
	beer.ID = beerID
	beer.Version = 1
	beer.CreatedAt = now
	beer.UpdatedAt = now

	if err := s.repo.Create(ctx, &beer); err != nil {
		// The storage unique constraint wins over the lookup above when registrations race.
		if errors.Is(err, model.ErrDuplicateName) {
			return nil, &model.DuplicateNameError{Name: beer.Name}
		}
		return nil, err
	}

	s.dispatch(ctx, model.BeerRegistered{
		BeerID:   beer.ID,
		Name:     beer.Name,
		Brand:    beer.Brand,
		Max:      beer.Max,
		Quantity: beer.Quantity,
	})
	return &beer, nil
}

func (s *beerService) FindByName(ctx context.Context, name string) (_ *model.Beer, err error) {
	ctx, span := s.startSpan(ctx, "FindByName", attribute.String("beer.name", name))
	defer func() { endSpan(span, err) }()

	beer, err := s.repo.FindByName(ctx, name)
	if errors.Is(err, model.ErrBeerNotFound) {
		return nil, &model.NotFoundError{Name: name}
	}
	return beer, err
}

func (s *beerService) FindByID(ctx context.Context, id uuid.UUID) (_ *model.Beer, err error) {
	ctx, span := s.startSpan(ctx, "FindByID", attribute.String("beer.id", id.String()))
	defer func() { endSpan(span, err) }()

	return s.find(ctx, id)
}

func (s *beerService) ListAll(ctx context.Context) (_ []model.Beer, err error) {
	ctx, span := s.startSpan(ctx, "ListAll")
	defer func() { endSpan(span, err) }()

	beers, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if beers == nil {
		beers = []model.Beer{}
	}
	span.SetAttributes(attribute.Int("beer.count", len(beers)))
	return beers, nil
}

func (s *beerService) DeleteByID(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteByID", attribute.String("beer.id", id.String()))
	defer func() { endSpan(span, err) }()

	s.idLocks.Lock(id.String())
	defer s.idLocks.Unlock(id.String())

	beer, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, model.ErrBeerNotFound) {
			return &model.NotFoundError{ID: id}
		}
		return err
	}

	s.dispatch(ctx, model.BeerDeleted{BeerID: id, Name: beer.Name})
	return nil
}

func (s *beerService) Increment(ctx context.Context, id uuid.UUID, amount int) (*model.Beer, error) {
	return s.adjustStock(ctx, "Increment", id, amount, rules.DecideIncrement, amount)
}

func (s *beerService) Decrement(ctx context.Context, id uuid.UUID, amount int) (*model.Beer, error) {
	return s.adjustStock(ctx, "Decrement", id, amount, rules.DecideDecrement, -amount)
}

type stockDecision func(current model.Beer, amount int) (int, error)

// adjustStock runs load, decide, write under the beer's id lock.
func (s *beerService) adjustStock(
	ctx context.Context,
	operation string,
	id uuid.UUID,
	amount int,
	decide stockDecision,
	signedAmount int,
) (_ *model.Beer, err error) {
	ctx, span := s.startSpan(ctx, operation,
		attribute.String("beer.id", id.String()),
		attribute.Int("stock.amount", amount),
	)
	defer func() { endSpan(span, err) }()

	if err := model.ValidateAmount(amount); err != nil {
		return nil, err
	}

	s.idLocks.Lock(id.String())
	defer s.idLocks.Unlock(id.String())

	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	newQuantity, err := decide(*current, amount)
	if err != nil {
		return nil, err
	}

	next := *current
	next.Quantity = newQuantity
	next.Version++
	next.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, &next); err != nil {
		if errors.Is(err, model.ErrBeerNotFound) {
			return nil, &model.NotFoundError{ID: id}
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int("stock.new_quantity", newQuantity))
	s.dispatch(ctx, model.BeerStockChanged{
		BeerID:       id,
		ChangeAmount: signedAmount,
		NewQuantity:  newQuantity,
	})
	return &next, nil
}

func (s *beerService) find(ctx context.Context, id uuid.UUID) (*model.Beer, error) {
	beer, err := s.repo.Find(ctx, id)
	if errors.Is(err, model.ErrBeerNotFound) {
		return nil, &model.NotFoundError{ID: id}
	}
	return beer, err
}

// dispatch publishes under the caller's trace but not its cancellation: the write is already committed.
func (s *beerService) dispatch(ctx context.Context, event domain.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dispatchTimeout)
	defer cancel()

	if err := s.dispatcher.Dispatch(ctx, event); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"event":     event.Type(),
			"aggregate": event.AggregateID(),
		}).Error("failed to dispatch event")
	}
}

func (s *beerService) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "BeerService."+operation, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
