package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/nats-io/jwt"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nkeys"

	"github.com/Synternet/terraswap-core/internal/terraswap"
	"github.com/Synternet/terraswap-core/pkg/types"
)

func setDefault(field string, value string) {
	if os.Getenv(field) == "" {
		os.Setenv(field, value)
	}
}

// CreateUser creates NATS user NKey and JWT from given account seed NKey.
func CreateUser(seed string) (*string, *string, error) {
	accountSeed := []byte(seed)

	accountKeys, err := nkeys.FromSeed(accountSeed)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get account key from seed: %w", err)
	}

	accountPubKey, err := accountKeys.PublicKey()
	if err != nil {
		return nil, nil, fmt.Errorf("error getting public key: %w", err)
	}

	userKeys, err := nkeys.CreateUser()
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create account key: %w", err)
	}

	userSeed, err := userKeys.Seed()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get seed: %w", err)
	}
	nkey := string(userSeed)

	userPubKey, err := userKeys.PublicKey()
	if err != nil {
		return nil, nil, fmt.Errorf("cannot get user's public key: %w", err)
	}

	claims := jwt.NewUserClaims(userPubKey)
	claims.Issuer = accountPubKey
	jwt, err := claims.Encode(accountKeys)
	if err != nil {
		return nil, nil, fmt.Errorf("error encoding token to jwt: %w", err)
	}

	return &nkey, &jwt, nil
}

// makeNats connects to NATS using whichever credentials are supplied.
// It returns a nil connection when urls is empty.
func makeNats(name, urls, userCreds, nkey, userJWT, caCert, clientCert, clientKey string) (*nats.Conn, error) {
	if urls == "" {
		return nil, nil
	}

	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	switch {
	case userCreds != "":
		opts = append(opts, nats.UserCredentials(userCreds))
	case nkey != "" && userJWT != "":
		opts = append(opts, nats.UserJWTAndSeed(userJWT, nkey))
	}
	if caCert != "" {
		opts = append(opts, nats.RootCAs(caCert))
	}
	if clientCert != "" && clientKey != "" {
		opts = append(opts, nats.ClientCert(clientCert, clientKey))
	}

	return nats.Connect(urls, opts...)
}

// newService builds the service from the persistent flags without starting its loops.
func newService(ctx context.Context, opts ...terraswap.Option) *terraswap.Service {
	endpoints := append([]terraswap.Endpoint{{
		Name:       *flagNetwork,
		GRPC:       *flagGRPCAPI,
		Tendermint: *flagTendermintAPI,
		Factory:    *flagFactory,
	}}, *flagNetworks.Value...)

	opts = append([]terraswap.Option{
		terraswap.WithContext(ctx),
		terraswap.WithEndpoints(endpoints...),
		terraswap.WithNetwork(*flagNetwork),
		terraswap.WithWallet(*flagWallet),
		terraswap.WithQueryTimeout(*flagQueryTimeout),
		terraswap.WithPrefix(*flagPrefixName),
		terraswap.WithNats(natsPubConnection),
	}, opts...)
	if database != nil {
		opts = append(opts, terraswap.WithRepository(database))
	}

	svc, err := terraswap.New(opts...)
	if err != nil {
		panic(fmt.Errorf("failed creating service: %w", err))
	}
	return svc
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		panic(err)
	}
}

// decimalsOf returns the decimals the pair records for address, or fallback.
func decimalsOf(pair types.Pair, found bool, address string, fallback int32) int32 {
	if !found {
		return fallback
	}
	if idx := pair.Index(address); idx >= 0 {
		return int32(pair.AssetDecimals[idx])
	}
	return fallback
}
