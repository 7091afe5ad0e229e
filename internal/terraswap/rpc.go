package terraswap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	wasmtypes "github.com/CosmWasm/wasmd/x/wasm/types"
	rpchttp "github.com/cometbft/cometbft/rpc/client/http"
	"github.com/cosmos/cosmos-sdk/types/query"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	IBCTypes "github.com/cosmos/ibc-go/v7/modules/apps/transfer/types"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

var (
	ErrUnknownNetwork    = errors.New("unknown network")
	ErrMalformedResponse = errors.New("malformed contract response")
	// ErrContractRejected is returned when the node reached the contract and the query failed there.
	ErrContractRejected = errors.New("contract rejected query")
)

// Endpoint describes how to reach one network.
type Endpoint struct {
	Name       string
	GRPC       string
	Tendermint string
	Factory    string
}

// ChainStatus is the result of a connectivity probe.
type ChainStatus struct {
	ChainID string
	Height  int64
}

type rpc struct {
	endpoint   Endpoint
	logger     *slog.Logger
	grpc       *grpc.ClientConn
	tendermint *rpchttp.HTTP
	limiter    *rate.Limiter
	timeout    time.Duration

	wasmQueryClient wasmtypes.QueryClient
	bankQueryClient banktypes.QueryClient
	ibcQueryClient  IBCTypes.QueryClient

	errCounter   atomic.Uint64
	queryCounter atomic.Uint64
}

func newRpc(endpoint Endpoint, logger *slog.Logger, limit rate.Limit, timeout time.Duration) (*rpc, error) {
	ret := &rpc{
		endpoint: endpoint,
		logger:   logger,
		limiter:  rate.NewLimiter(limit, 1),
		timeout:  timeout,
	}

	logger.Info("Using endpoints", "network", endpoint.Name, "tendermint", endpoint.Tendermint, "grpc", endpoint.GRPC, "factory", endpoint.Factory)

	grpcConn, err := grpc.Dial(
		endpoint.GRPC,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed dialing %s: %w", endpoint.GRPC, err)
	}
	ret.grpc = grpcConn

	if endpoint.Tendermint != "" {
		client, err := rpchttp.NewWithTimeout(endpoint.Tendermint, "/websocket", 3)
		if err != nil {
			grpcConn.Close()
			return nil, fmt.Errorf("failed creating tendermint client %s: %w", endpoint.Tendermint, err)
		}
		ret.tendermint = client
	}

	ret.wasmQueryClient = wasmtypes.NewQueryClient(grpcConn)
	ret.bankQueryClient = banktypes.NewQueryClient(grpcConn)
	ret.ibcQueryClient = IBCTypes.NewQueryClient(grpcConn)

	return ret, nil
}

func (c *rpc) Close() error {
	if c.grpc == nil {
		return nil
	}
	return c.grpc.Close()
}

// call waits for the rate limiter and returns a context bounded by the query timeout.
func (c *rpc) call(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}
	c.queryCounter.Add(1)
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	return ctx, cancel, nil
}

func (c *rpc) fail(err error) error {
	c.errCounter.Add(1)
	if isTransport(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrContractRejected, err)
}

// isTransport reports whether err means the node could not answer at all.
func isTransport(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled, codes.ResourceExhausted, codes.Unimplemented:
		return true
	}
	return false
}

func (c *rpc) SmartQuery(ctx context.Context, contract string, msg, out any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed encoding query for %s: %w", contract, err)
	}

	ctx, cancel, err := c.call(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	res, err := c.wasmQueryClient.SmartContractState(ctx, &wasmtypes.QuerySmartContractStateRequest{
		Address:   contract,
		QueryData: payload,
	})
	if err != nil {
		return c.fail(err)
	}
	if err := json.Unmarshal(res.Data, out); err != nil {
		c.errCounter.Add(1)
		return fmt.Errorf("%w: %s: %w", ErrMalformedResponse, contract, err)
	}
	return nil
}

func (c *rpc) Balance(ctx context.Context, address, denom string) (string, error) {
	ctx, cancel, err := c.call(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()

	res, err := c.bankQueryClient.Balance(ctx, &banktypes.QueryBalanceRequest{
		Address: address,
		Denom:   denom,
	})
	if err != nil {
		return "", c.fail(err)
	}
	if res.Balance == nil {
		return "0", nil
	}
	return res.Balance.Amount.String(), nil
}

func (c *rpc) DenomTraces(ctx context.Context) ([]IBCTypes.DenomTrace, error) {
	traces := make([]IBCTypes.DenomTrace, 0, 10)
	var nextPageKey []byte

	for {
		req := &IBCTypes.QueryDenomTracesRequest{
			Pagination: &query.PageRequest{
				Key:   nextPageKey,
				Limit: 100,
			},
		}
		callCtx, cancel, err := c.call(ctx)
		if err != nil {
			return traces, err
		}
		res, err := c.ibcQueryClient.DenomTraces(callCtx, req)
		cancel()
		if err != nil {
			c.errCounter.Add(1)
			c.logger.Warn("Failed to fetch denom traces", "network", c.endpoint.Name, "err", err)
			return traces, err
		}

		traces = append(traces, res.DenomTraces...)

		if res.Pagination == nil || len(res.Pagination.NextKey) == 0 {
			break
		}
		nextPageKey = res.Pagination.NextKey
	}

	return traces, nil
}

// Probe asks the node for its status. Without a tendermint endpoint the gRPC
// connection state is used instead.
func (c *rpc) Probe(ctx context.Context) (ChainStatus, error) {
	if c.tendermint == nil {
		state := c.grpc.GetState()
		switch state {
		case connectivity.TransientFailure, connectivity.Shutdown:
			c.grpc.Connect()
			return ChainStatus{}, fmt.Errorf("grpc connection %s", state)
		case connectivity.Idle:
			c.grpc.Connect()
		}
		return ChainStatus{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	res, err := c.tendermint.Status(ctx)
	if err != nil {
		c.errCounter.Add(1)
		return ChainStatus{}, err
	}
	return ChainStatus{
		ChainID: res.NodeInfo.Network,
		Height:  res.SyncInfo.LatestBlockHeight,
	}, nil
}

func (c *rpc) getStatus() map[string]any {
	return map[string]any{
		"errors":  c.errCounter.Swap(0),
		"queries": c.queryCounter.Swap(0),
	}
}
