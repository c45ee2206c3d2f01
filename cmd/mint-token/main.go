// Command mint-token prints a tenant token signed with the private key from
// the environment. The token goes to stdout and its expiry to stderr, so
// TOKEN=$(mint-token -tenant 3) works in scripts.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ETAnderson/catalogfeed/internal/api/auth"
	"github.com/joho/godotenv"
)

func main() {
	var (
		tenantID = flag.Uint64("tenant", 1, "tenant_id claim value")
		ttl      = flag.Duration("ttl", 30*time.Minute, "token TTL, at most 24h")
		subject  = flag.String("sub", "dev-client", "subject (sub)")
		envKey   = flag.String("env", "JWT_PRIVATE_KEY_PEM", "env var containing RSA private key PEM")
	)
	flag.Parse()

	_ = godotenv.Load()

	if *tenantID == 0 {
		fmt.Fprintln(os.Stderr, "tenant must be > 0")
		os.Exit(2)
	}

	priv, err := auth.LoadRSAPrivateKeyFromEnv(*envKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load private key failed: %v\n", err)
		os.Exit(1)
	}

	s, err := auth.SignRS256(priv, *tenantID, *subject, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(s)
	fmt.Fprintf(os.Stderr, "tenant %d, expires %s\n", *tenantID, time.Now().Add(*ttl).UTC().Format(time.RFC3339))
}
