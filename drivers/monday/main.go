package main

import (
	"github.com/datazip-inc/olake-monday"
	driver "github.com/datazip-inc/olake-monday/drivers/monday/internal"
)

func main() {
	olake.RegisterDriver(&driver.Monday{})
}
