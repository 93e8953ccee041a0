// Command convertdata turns a delimited dataset into the space separated
// matrix files read by the kmeans and MST clustering programs.
//
//	convertdata <file_to_read> [sep] ["except_cols1;except_cols2;..."] [do_scale:0/1] [nb_points]
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"convertdata/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		logger.Errorf("%v", err)
		stop()
		os.Exit(1)
	}
}
