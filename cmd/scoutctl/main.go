// scoutctl is the authorizer's tool: it generates signing keys and
// produces signed scouting authorizations the service verifies.
package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/metasoccer/scouting-contracts/pkg/identity"
	"github.com/metasoccer/scouting-contracts/pkg/scoutsig"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	switch os.Args[1] {
	case "keygen":
		keygen()
	case "sign":
		sign(os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: scoutctl keygen | scoutctl sign [flags]")
	os.Exit(2)
}

func keygen() {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		fatal(err)
	}
	account, err := identity.FromEd25519PublicKey(pub)
	if err != nil {
		fatal(err)
	}
	out, _ := json.Marshal(map[string]any{
		"account":     account,
		"private_key": hex.EncodeToString(priv.Seed()),
	})
	fmt.Println(string(out))
}

func sign(args []string) {
	fs := flag.NewFlagSet("sign", flag.ExitOnError)
	keyHex := fs.String("key", "", "ed25519 private key seed, hex")
	collateral := fs.Uint64("collateral", 0, "collateral item id")
	level := fs.Uint("level", 0, "scouting level")
	role := fs.String("role", "", "derivative role label")
	lock := fs.Int64("lock", 0, "lock duration, seconds")
	ttl := fs.Duration("ttl", 15*time.Minute, "authorization validity")
	domainName := fs.String("domain-name", "MetaSoccer Scouting", "signing domain name")
	domainVersion := fs.String("domain-version", "1", "signing domain version")
	instance := fs.String("instance", "", "verifying instance id")
	_ = fs.Parse(args)

	seed, err := hex.DecodeString(*keyHex)
	if err != nil || len(seed) != ed25519.SeedSize {
		fatal(fmt.Errorf("-key must be a %d-byte hex seed", ed25519.SeedSize))
	}
	if *collateral == 0 || *lock <= 0 || *instance == "" {
		fatal(fmt.Errorf("-collateral, -lock and -instance are required"))
	}
	priv := ed25519.NewKeyFromSeed(seed)

	req := scoutsig.Request{
		CollateralID: *collateral,
		Level:        uint8(*level),
		Role:         *role,
		LockDuration: *lock,
		Expiry:       time.Now().Add(*ttl).Unix(),
	}
	env := scoutsig.Sign(scoutsig.Domain{
		Name:     *domainName,
		Version:  *domainVersion,
		Instance: *instance,
	}, req, priv)

	out, _ := json.Marshal(map[string]any{
		"request":   req,
		"signature": env,
	})
	fmt.Println(string(out))
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "scoutctl:", err)
	os.Exit(1)
}
