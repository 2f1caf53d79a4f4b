package rpc

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"beerstock/pkg/beer/domain/model"
)

// Client calls a remote beer stock service. Failures come back as gRPC status errors.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) Register(ctx context.Context, beer model.Beer) (*model.Beer, error) {
	in, err := structpb.NewStruct(map[string]any{
		"name":     beer.Name,
		"brand":    beer.Brand,
		"type":     string(beer.Type),
		"max":      beer.Max,
		"quantity": beer.Quantity,
	})
	if err != nil {
		return nil, err
	}
	return c.invokeBeer(ctx, "Register", in)
}

func (c *Client) FindByName(ctx context.Context, name string) (*model.Beer, error) {
	return c.invokeBeer(ctx, "FindByName", wrapperspb.String(name))
}

func (c *Client) List(ctx context.Context) ([]model.Beer, error) {
	out := new(structpb.ListValue)
	if err := c.conn.Invoke(ctx, fullMethod("List"), &emptypb.Empty{}, out); err != nil {
		return nil, err
	}

	beers := make([]model.Beer, 0, len(out.GetValues()))
	for _, value := range out.GetValues() {
		beer, err := structToBeer(value.GetStructValue())
		if err != nil {
			return nil, err
		}
		beers = append(beers, *beer)
	}
	return beers, nil
}

func (c *Client) Delete(ctx context.Context, id uuid.UUID) error {
	return c.conn.Invoke(ctx, fullMethod("Delete"), wrapperspb.String(id.String()), new(emptypb.Empty))
}

func (c *Client) Increment(ctx context.Context, id uuid.UUID, amount int) (*model.Beer, error) {
	return c.adjustStock(ctx, "Increment", id, amount)
}

func (c *Client) Decrement(ctx context.Context, id uuid.UUID, amount int) (*model.Beer, error) {
	return c.adjustStock(ctx, "Decrement", id, amount)
}

func (c *Client) adjustStock(ctx context.Context, method string, id uuid.UUID, amount int) (*model.Beer, error) {
	in, err := structpb.NewStruct(map[string]any{
		"id":       id.String(),
		"quantity": amount,
	})
	if err != nil {
		return nil, err
	}
	return c.invokeBeer(ctx, method, in)
}

func (c *Client) invokeBeer(ctx context.Context, method string, in any) (*model.Beer, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, fullMethod(method), in, out); err != nil {
		return nil, err
	}
	return structToBeer(out)
}
