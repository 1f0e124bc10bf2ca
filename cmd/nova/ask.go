package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/nadzzz/nova/internal/message"
	grpctransport "github.com/nadzzz/nova/internal/transport/grpc"
)

// askCmd sends one turn to a running daemon over gRPC.
func askCmd() *cobra.Command {
	var (
		addr      string
		sessionID string
		timeout   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "ask [text]",
		Short: "Send one message to a running nova over gRPC",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
			if err != nil {
				return fmt.Errorf("connecting to %s: %w", addr, err)
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			res, err := grpctransport.NewClient(conn).RunTurn(ctx, &message.ChatRequest{
				SessionID: sessionID,
				Text:      strings.Join(args, " "),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", res.Emotion, res.Text)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:50051", "gRPC address of the nova daemon")
	cmd.Flags().StringVar(&sessionID, "session", "", "session id (default session when empty)")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "request timeout")
	return cmd
}
