package seed

import (
	"io"

	"github.com/parquet-go/parquet-go"
)

func WriteParquet(w io.Writer, sales []Sale) error {
	writer := parquet.NewGenericWriter[Sale](w)
	if _, err := writer.Write(sales); err != nil {
		return err
	}
	return writer.Close()
}
