package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The service speaks protobuf well-known types only, so it needs no generated code.
// Movies travel as Struct values shaped like the HTTP JSON representation.
const (
	ServiceName = "movies.v1.MovieInterService"

	getMovieInfoMethod     = "/" + ServiceName + "/GetMovieInfo"
	checkMovieExistsMethod = "/" + ServiceName + "/CheckMovieExists"
	listMoviesMethod       = "/" + ServiceName + "/ListMovies"
)

// MovieInterServiceServer is the server side of movies.v1.MovieInterService.
type MovieInterServiceServer interface {
	// GetMovieInfo takes a movie id.
	GetMovieInfo(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	// CheckMovieExists takes a movie id.
	CheckMovieExists(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	// ListMovies takes a genre filter; an empty value lists everything.
	ListMovies(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
}

// RegisterMovieInterServiceServer registers srv on s.
func RegisterMovieInterServiceServer(s grpc.ServiceRegistrar, srv MovieInterServiceServer) {
	s.RegisterService(&movieInterServiceDesc, srv)
}

var movieInterServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MovieInterServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetMovieInfo", Handler: getMovieInfoHandler},
		{MethodName: "CheckMovieExists", Handler: checkMovieExistsHandler},
		{MethodName: "ListMovies", Handler: listMoviesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "movies/v1/movie_inter_service.proto",
}

func getMovieInfoHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MovieInterServiceServer).GetMovieInfo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getMovieInfoMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MovieInterServiceServer).GetMovieInfo(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func checkMovieExistsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MovieInterServiceServer).CheckMovieExists(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: checkMovieExistsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MovieInterServiceServer).CheckMovieExists(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func listMoviesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MovieInterServiceServer).ListMovies(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listMoviesMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MovieInterServiceServer).ListMovies(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}
