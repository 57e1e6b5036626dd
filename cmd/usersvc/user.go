package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	userv1 "userManagement/api/user/v1"
)

// clientOptions are shared by every `user` subcommand.
type clientOptions struct {
	target  string
	timeout time.Duration
}

// call dials the target, runs fn with a bounded context and closes the connection.
func (o *clientOptions) call(cmd *cobra.Command, fn func(ctx context.Context, c userv1.UserServiceClient) error) error {
	conn, err := grpc.NewClient(o.target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("dial %s: %w", o.target, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	defer cancel()
	return fn(ctx, userv1.NewUserServiceClient(conn))
}

func newUserCmd() *cobra.Command {
	opts := &clientOptions{}
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Call UserService on a running server",
	}
	cmd.PersistentFlags().StringVar(&opts.target, "target", "localhost:50051", "server address")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "per-call timeout")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "query <search>",
			Short: "Find a user by username, email or id",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.call(cmd, func(ctx context.Context, c userv1.UserServiceClient) error {
					resp, err := c.Query(ctx, &userv1.QueryRequest{Search: args[0]})
					if err != nil {
						return err
					}
					printFields(cmd.OutOrStdout(),
						"id", resp.GetId(),
						"username", resp.GetUsername(),
						"email", resp.GetEmail(),
						"password", resp.GetPassword())
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "insert <username> <email> <password>",
			Short: "Create a user",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.call(cmd, func(ctx context.Context, c userv1.UserServiceClient) error {
					resp, err := c.Insert(ctx, &userv1.InsertRequest{Username: args[0], Email: args[1], Password: args[2]})
					if err != nil {
						return err
					}
					printFields(cmd.OutOrStdout(), "id", resp.GetId())
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "update <id> <username> <email> <password>",
			Short: "Replace a user's username, email and password",
			Args:  cobra.ExactArgs(4),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.call(cmd, func(ctx context.Context, c userv1.UserServiceClient) error {
					resp, err := c.Update(ctx, &userv1.UpdateRequest{Id: args[0], Username: args[1], Email: args[2], Password: args[3]})
					if err != nil {
						return err
					}
					printFields(cmd.OutOrStdout(), "id", resp.GetId())
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a user",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.call(cmd, func(ctx context.Context, c userv1.UserServiceClient) error {
					resp, err := c.Delete(ctx, &userv1.DeleteRequest{Id: args[0]})
					if err != nil {
						return err
					}
					printFields(cmd.OutOrStdout(), "success", fmt.Sprint(resp.GetSuccess()))
					return nil
				})
			},
		},
	)
	return cmd
}

// printFields writes alternating key/value pairs as key=value lines.
func printFields(w io.Writer, kv ...string) {
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(w, "%s=%s\n", kv[i], kv[i+1])
	}
}
