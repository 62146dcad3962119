package grpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"movies-api/internal/domain"
	"movies-api/internal/store"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const callTimeout = 3 * time.Second

// Client calls movies.v1.MovieInterService on another process.
type Client struct {
	cc     grpc.ClientConnInterface
	conn   *grpc.ClientConn
	logger *slog.Logger
}

// Dial creates a client for the service at addr (for example "localhost:9092").
func Dial(addr string, logger *slog.Logger) (*Client, error) {
	logger.Info("Creating MovieInterService gRPC client", slog.String("address", addr))
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create movie service client for %s: %w", addr, err)
	}
	c := NewClient(conn, logger)
	c.conn = conn
	return c, nil
}

// NewClient wraps an existing connection. Close does not close cc.
func NewClient(cc grpc.ClientConnInterface, logger *slog.Logger) *Client {
	return &Client{cc: cc, logger: logger}
}

func (c *Client) invoke(ctx context.Context, method string, in, out interface{}) error {
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	if err := c.cc.Invoke(callCtx, method, in, out); err != nil {
		st, _ := status.FromError(err)
		c.logger.ErrorContext(ctx, "MovieInterService gRPC call failed",
			slog.String("method", method),
			slog.String("code", st.Code().String()),
			slog.String("message", st.Message()))
		return err
	}
	return nil
}

// GetMovieInfo fetches a movie by id. A missing movie yields store.ErrMovieNotFound.
func (c *Client) GetMovieInfo(ctx context.Context, movieID string) (*domain.Movie, error) {
	out := new(structpb.Struct)
	if err := c.invoke(ctx, getMovieInfoMethod, wrapperspb.String(movieID), out); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, store.ErrMovieNotFound
		}
		return nil, fmt.Errorf("grpc GetMovieInfo failed for movieID %s: %w", movieID, err)
	}
	var movie domain.Movie
	if err := remarshal(out.AsMap(), &movie); err != nil {
		return nil, fmt.Errorf("decode movie %s: %w", movieID, err)
	}
	return &movie, nil
}

// CheckMovieExists reports whether the movie is stored.
func (c *Client) CheckMovieExists(ctx context.Context, movieID string) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.invoke(ctx, checkMovieExistsMethod, wrapperspb.String(movieID), out); err != nil {
		return false, fmt.Errorf("grpc CheckMovieExists failed for movieID %s: %w", movieID, err)
	}
	return out.GetValue(), nil
}

// ListMovies lists movies, filtered by genre when it is not empty.
func (c *Client) ListMovies(ctx context.Context, genre string) ([]*domain.Movie, error) {
	out := new(structpb.ListValue)
	if err := c.invoke(ctx, listMoviesMethod, wrapperspb.String(genre), out); err != nil {
		return nil, fmt.Errorf("grpc ListMovies failed: %w", err)
	}
	movies := []*domain.Movie{}
	if err := remarshal(out.AsSlice(), &movies); err != nil {
		return nil, fmt.Errorf("decode movies: %w", err)
	}
	return movies, nil
}

// Close closes the connection opened by Dial.
func (c *Client) Close() error {
	if c.conn != nil {
		c.logger.Info("Closing gRPC connection to MovieInterService")
		return c.conn.Close()
	}
	return nil
}

// remarshal converts the generic Struct form back into typed values through JSON.
func remarshal(in, out interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
