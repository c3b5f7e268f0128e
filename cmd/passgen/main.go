// passgen generates one signed .pkpass archive to a local file, without a
// database or HTTP server. Debug tool for certificate and template setup.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/loyclub/loyalty-services/internal/passkit"
)

func main() {
	var (
		name    = flag.String("name", "Test Customer", "customer name on the pass")
		balance = flag.String("balance", "0", "balance shown on the pass")
		out     = flag.String("out", "pass.pkpass", "output file")

		teamID     = flag.String("team", os.Getenv("APPLE_TEAM_ID"), "Apple team identifier")
		passTypeID = flag.String("pass-type", os.Getenv("APPLE_PASS_TYPE_ID"), "pass type identifier")
		certPath   = flag.String("cert", os.Getenv("APPLE_CERT_PATH"), "signer certificate PEM")
		keyPath    = flag.String("key", os.Getenv("APPLE_KEY_PATH"), "signer key PEM")
		wwdrPath   = flag.String("wwdr", os.Getenv("APPLE_WWDR_PATH"), "WWDR intermediate certificate")
		templates  = flag.String("templates", os.Getenv("PASS_TEMPLATE_DIR"), "template image directory")
	)
	flag.Parse()

	generator, err := passkit.NewGenerator(passkit.Config{
		TeamID:       *teamID,
		PassTypeID:   *passTypeID,
		Organization: "Loy",
		Description:  "Loy Digital Loyalty Card",
		LogoText:     "Loy Club",
		AuthSecret:   "passgen-debug",
		CertPath:     *certPath,
		KeyPath:      *keyPath,
		WWDRPath:     *wwdrPath,
		TemplateDir:  *templates,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "passgen: %v\n", err)
		os.Exit(1)
	}

	amount, err := decimal.NewFromString(*balance)
	if err != nil {
		fmt.Fprintf(os.Stderr, "passgen: invalid balance %q\n", *balance)
		os.Exit(1)
	}

	snap := passkit.Snapshot{
		CustomerID:   "passgen",
		Name:         *name,
		Balance:      amount,
		SerialNumber: generator.Builder().MintSerial("passgen"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	archive, err := generator.Generate(ctx, snap)
	if err != nil {
		fmt.Fprintf(os.Stderr, "passgen: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*out, archive, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "passgen: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("wrote %s (%d bytes, serial %s)\n", *out, len(archive), snap.SerialNumber)
}
