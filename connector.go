package olake

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/datazip-inc/olake-monday/drivers/abstract"
	"github.com/datazip-inc/olake-monday/protocol"
	"github.com/datazip-inc/olake-monday/utils/logger"
	"github.com/datazip-inc/olake-monday/utils/safego"

	_ "github.com/datazip-inc/olake-monday/destination/parquet" // registering local parquet writer
	_ "github.com/datazip-inc/olake-monday/destination/singer"  // registering stdout singer writer
)

type closer interface {
	Close()
}

func RegisterDriver(driver abstract.DriverInterface) {
	defer safego.Recovery(true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := protocol.CreateRootCommand(true, driver).ExecuteContext(ctx)
	stop()
	if c, ok := driver.(closer); ok {
		c.Close()
	}
	if err != nil {
		logger.Fatal(err)
	}
}
