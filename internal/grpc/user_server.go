package grpcserver

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	userv1 "userManagement/api/user/v1"
	"userManagement/models"
	"userManagement/repository"
)

// sentinelID is the wire id of a Query that matched nothing.
const sentinelID = "-1"

// UserServer implements myapp.UserService on top of a UserStore.
type UserServer struct {
	userv1.UnimplementedUserServiceServer
	Users repository.UserStore
	Log   *zap.Logger
}

func (s *UserServer) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// Query returns the first user whose username, email or id equals the search value.
// No match is not an error: the response carries id "-1" and empty fields.
func (s *UserServer) Query(ctx context.Context, req *userv1.QueryRequest) (*userv1.QueryResponse, error) {
	users, err := s.Users.Search(ctx, req.GetSearch())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &userv1.QueryResponse{Id: sentinelID}, nil
		}
		return nil, s.repoStatus(ctx, "query", err)
	}
	return toQueryResponse(&users[0]), nil
}

// Insert creates a user and returns the database-assigned id.
func (s *UserServer) Insert(ctx context.Context, req *userv1.InsertRequest) (*userv1.InsertResponse, error) {
	u, err := s.Users.Create(ctx, req.GetUsername(), req.GetEmail(), req.GetPassword())
	if err != nil {
		return nil, s.repoStatus(ctx, "insert", err)
	}
	return &userv1.InsertResponse{Id: u.IDString()}, nil
}

// Update replaces username, email and password of the user with the given id
// and echoes that id back, whether or not a row matched.
func (s *UserServer) Update(ctx context.Context, req *userv1.UpdateRequest) (*userv1.UpdateResponse, error) {
	id, err := models.ParseID(req.GetId())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid id %q", req.GetId())
	}
	u, err := s.Users.Update(ctx, &models.User{
		ID:       id,
		Username: req.GetUsername(),
		Email:    req.GetEmail(),
		Password: req.GetPassword(),
	})
	if err != nil {
		return nil, s.repoStatus(ctx, "update", err)
	}
	return &userv1.UpdateResponse{Id: u.IDString()}, nil
}

// Delete removes the user with the given id. success reports whether the statement
// ran; deleting an id that does not exist still succeeds.
func (s *UserServer) Delete(ctx context.Context, req *userv1.DeleteRequest) (*userv1.DeleteResponse, error) {
	id, err := models.ParseID(req.GetId())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid id %q", req.GetId())
	}
	err = s.Users.Delete(ctx, id)
	switch {
	case err == nil:
		return &userv1.DeleteResponse{Success: true}, nil
	case repository.KindOf(err) == repository.KindStatement && codeFor(err) == codes.Internal:
		s.logger().Warn("delete statement failed", zap.Int64("id", id), zap.String("request_id", RequestIDFromContext(ctx)), zap.Error(err))
		return &userv1.DeleteResponse{Success: false}, nil
	default:
		return nil, s.repoStatus(ctx, "delete", err)
	}
}

// repoStatus logs a repository failure and converts it into a gRPC status.
func (s *UserServer) repoStatus(ctx context.Context, op string, err error) error {
	code := codeFor(err)
	s.logger().Error("repository error",
		zap.String("op", op),
		zap.String("kind", repository.KindOf(err).String()),
		zap.String("code", code.String()),
		zap.String("request_id", RequestIDFromContext(ctx)),
		zap.Error(err))
	return status.Errorf(code, "%s: %v", op, err)
}

// codeFor maps repository and context errors to gRPC codes.
func codeFor(err error) codes.Code {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	}
	switch repository.KindOf(err) {
	case repository.KindConnection:
		return codes.Unavailable
	case repository.KindNotFound:
		return codes.NotFound
	default:
		return codes.Internal
	}
}

// toQueryResponse converts a models.User to a QueryResponse message.
func toQueryResponse(u *models.User) *userv1.QueryResponse {
	return &userv1.QueryResponse{
		Id:       u.IDString(),
		Username: u.Username,
		Email:    u.Email,
		Password: u.Password,
	}
}
