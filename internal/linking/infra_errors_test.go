package linking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"uidtrust/internal/audit"
	"uidtrust/internal/chain"
	"uidtrust/internal/docstore"
	"uidtrust/internal/platform/metrics"
	"uidtrust/internal/user"
	chainmock "uidtrust/mocks/chain"
	dErrors "uidtrust/pkg/domain-errors"
)

// Infrastructure failures must degrade to a generic 500; the RPC error text
// never reaches the caller.
func TestLinkUidOracleUnreachable(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := chainmock.NewMockBlockSource(ctrl)
	source.EXPECT().LatestBlock(gomock.Any()).Return(chain.Block{}, errors.New("dial tcp: connection refused"))

	service := newMockedService(t, source, chainmock.NewMockUniqueIdentityReader(ctrl))

	uidType, expires, nonce := 0, uint64(2_000_000), uint64(1)
	req := Request{MsgSender: "0x1111111111111111111111111111111111111111", UIDType: &uidType, ExpiresAt: &expires, Nonce: &nonce}

	_, err := service.LinkUid(context.Background(), common.Address{}, req, "")
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	require.Equal(t, "internal server error", dErrors.MessageOf(err))
}

func TestLinkUidBalanceReadFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := chainmock.NewMockBlockSource(ctrl)
	source.EXPECT().LatestBlock(gomock.Any()).Return(chain.Block{Number: 100, Timestamp: 1_000_000}, nil)
	uid := chainmock.NewMockUniqueIdentityReader(ctrl)
	uid.EXPECT().BalanceOf(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("execution reverted"))

	service := newMockedService(t, source, uid)

	sender := common.HexToAddress("0x1111111111111111111111111111111111111111")
	uidType, expires, nonce := 0, uint64(2_000_000), uint64(1)
	req := Request{MsgSender: sender.Hex(), UIDType: &uidType, ExpiresAt: &expires, Nonce: &nonce}

	contract := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	plaintext := hexutil.Encode(MintMessage(sender, nil, 0, expires, contract, nonce, big.NewInt(1)))

	_, err := service.LinkUid(context.Background(), common.Address{}, req, plaintext)
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	require.Equal(t, "internal server error", dErrors.MessageOf(err))
}

func newMockedService(t *testing.T, source chain.BlockSource, uid chain.UniqueIdentityReader) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(
		user.NewStore(docstore.NewMemoryStore(), "test_"),
		uid,
		source,
		common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		big.NewInt(1),
		audit.NewMemoryPublisher(),
		logger,
		metrics.NewForTest(),
	)
}
