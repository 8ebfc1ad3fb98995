package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateInvoiceNumber builds a facture reference assigned when an order
// settles: FAC-<utc date>-<time>-<millis>-<random>. Uniqueness is ultimately
// the order row's concern; the random tail only keeps same-millisecond
// settlements apart.
func GenerateInvoiceNumber() string {
	now := time.Now().UTC()

	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		n = big.NewInt(now.UnixNano() % 10000)
	}

	return fmt.Sprintf(
		"FAC-%s-%03d-%04d",
		now.Format("20060102-150405"),
		now.Nanosecond()/int(time.Millisecond),
		n.Int64(),
	)
}
