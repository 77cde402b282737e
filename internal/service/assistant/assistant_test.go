package assistant

import (
	"context"
	"io"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/chainpilot/assistant-backend/internal/ai/anthropic"
	"github.com/chainpilot/assistant-backend/internal/cache/redis"
	"github.com/chainpilot/assistant-backend/internal/chain"
	"github.com/chainpilot/assistant-backend/internal/pricing"
	"github.com/chainpilot/assistant-backend/internal/storage/ipfs"
	"github.com/chainpilot/assistant-backend/internal/types"
)

// Fakes for the assistant's collaborators. Each records enough to assert
// call counts and ordering.

type fakeOracle struct {
	reply string
	err   error
	calls int
}

func (f *fakeOracle) Complete(ctx context.Context, system string, msgs []anthropic.Message) (string, error) {
	f.calls++
	return f.reply, f.err
}

type fakeSubmitter struct {
	mu           sync.Mutex
	result       *chain.TxResult
	err          error
	submits      int
	lastKind     string
	lastTokenURI string
	balance      *big.Int
	balanceErr   error
	feeErr       error
}

func (f *fakeSubmitter) record(kind string) {
	f.mu.Lock()
	f.submits++
	f.lastKind = kind
	f.mu.Unlock()
}

func (f *fakeSubmitter) CreateToken(ctx context.Context, p chain.TokenParams, signingKey string) (*chain.TxResult, error) {
	f.record("create_token")
	return f.result, f.err
}

func (f *fakeSubmitter) MintNFT(ctx context.Context, tokenURI string, recipient string, signingKey string) (*chain.TxResult, error) {
	f.mu.Lock()
	f.lastTokenURI = tokenURI
	f.mu.Unlock()
	f.record("mint_nft")
	return f.result, f.err
}

func (f *fakeSubmitter) SendTransaction(ctx context.Context, p chain.TransferParams, signingKey string) (*chain.TxResult, error) {
	f.record("send_transaction")
	return f.result, f.err
}

func (f *fakeSubmitter) NativeBalance(ctx context.Context, addr string) (*big.Int, error) {
	return f.balance, f.balanceErr
}

func (f *fakeSubmitter) EstimateFee(ctx context.Context, kind types.ActionKind) (*big.Int, error) {
	if f.feeErr != nil {
		return nil, f.feeErr
	}
	return big.NewInt(200_000_000_000_000), nil // 0.0002 ETH
}

func (f *fakeSubmitter) ExplorerTxURL(hash string) string   { return "https://scan.test/tx/" + hash }
func (f *fakeSubmitter) ExplorerAddressURL(a string) string { return "https://scan.test/address/" + a }
func (f *fakeSubmitter) NativeSymbol() string               { return "ETH" }

type fakePrices struct {
	quote *pricing.Quote
	err   error
}

func (f *fakePrices) NativePrice(ctx context.Context) (*pricing.Quote, error) {
	return f.quote, f.err
}

// fakeKV is an in-memory kvStore with TTLs ignored.
type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}}
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", redis.ErrCacheMiss
	}
	return v, nil
}

func (f *fakeKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func (f *fakeKV) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = value
	return true, nil
}

func (f *fakeKV) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

type fakeMsgRepo struct {
	mu       sync.Mutex
	messages []types.Message
}

func (f *fakeMsgRepo) Create(ctx context.Context, msg *types.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now()
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeMsgRepo) Insert(ctx context.Context, msg *types.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeMsgRepo) UpdateMetadata(ctx context.Context, id uuid.UUID, metadata []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.messages {
		if f.messages[i].ID == id {
			f.messages[i].Metadata = metadata
			return nil
		}
	}
	return nil
}

func (f *fakeMsgRepo) GetByConversationID(ctx context.Context, convID uuid.UUID) ([]types.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.Message, len(f.messages))
	copy(out, f.messages)
	return out, nil
}

func (f *fakeMsgRepo) GetRecent(ctx context.Context, convID uuid.UUID, limit int) ([]types.Message, error) {
	msgs, _ := f.GetByConversationID(ctx, convID)
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

func (f *fakeMsgRepo) DeleteByConversationID(ctx context.Context, convID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = nil
	return nil
}

func (f *fakeMsgRepo) last() types.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages[len(f.messages)-1]
}

// fakeAssets records uploaded payloads and answers with a fixed URL.
type fakeAssets struct {
	mu      sync.Mutex
	uploads [][]byte
	url     string
	err     error
}

func (f *fakeAssets) Validate(fileName string, size int64, contentType string) error { return nil }

func (f *fakeAssets) Upload(ctx context.Context, file io.Reader, fileName string) (*ipfs.UploadResult, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.uploads = append(f.uploads, data)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &ipfs.UploadResult{Success: true, URL: f.url}, nil
}

type fakeConvRepo struct {
	conv *types.Conversation
}

func (f *fakeConvRepo) GetByID(ctx context.Context, id uuid.UUID, address string) (*types.Conversation, error) {
	c := *f.conv
	return &c, nil
}

func (f *fakeConvRepo) UpdateTitle(ctx context.Context, id uuid.UUID, title string) error {
	f.conv.Title = &title
	return nil
}

func (f *fakeConvRepo) Touch(ctx context.Context, id uuid.UUID) error { return nil }

type testEnv struct {
	svc       *Service
	oracle    *fakeOracle
	submitter *fakeSubmitter
	msgs      *fakeMsgRepo
	kv        *fakeKV
	conv      *types.Conversation
}

func newTestEnv() *testEnv {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	conv := &types.Conversation{
		ID:      uuid.New(),
		Address: "0x1111111111111111111111111111111111111111",
	}

	oracle := &fakeOracle{}
	submitter := &fakeSubmitter{
		result: &chain.TxResult{Success: true, Hash: "0xabc"},
	}
	msgs := &fakeMsgRepo{}
	kv := newFakeKV()

	svc := NewService(
		oracle,
		msgs,
		&fakeConvRepo{conv: conv},
		kv,
		submitter,
		&fakePrices{quote: &pricing.Quote{Price: 3000}},
		nil,
		logger,
	)

	return &testEnv{
		svc:       svc,
		oracle:    oracle,
		submitter: submitter,
		msgs:      msgs,
		kv:        kv,
		conv:      conv,
	}
}
