package commands

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	spmcp "github.com/deixis/scriptpanel/internal/mcp"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the panels as MCP tools",
		Args:  cobra.NoArgs,
		RunE:  runMCP,
	}
	cmd.Flags().Bool("instructions", false, "print model instructions and exit")
	cmd.Flags().String("http", "", "start HTTP server on address (e.g. :9090)")
	return cmd
}

func runMCP(cmd *cobra.Command, _ []string) error {
	if ok, _ := cmd.Flags().GetBool("instructions"); ok {
		fmt.Fprint(cmd.OutOrStdout(), spmcp.Instructions)
		return nil
	}
	httpAddr, _ := cmd.Flags().GetString("http")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := startApp(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	server := spmcp.NewServer(a.board, a.sup)
	if httpAddr != "" {
		return serveHTTP(ctx, server, httpAddr, a.logger)
	}
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

func serveHTTP(ctx context.Context, server *mcpsdk.Server, addr string, logger *log.Logger) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	logger.Printf("listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
