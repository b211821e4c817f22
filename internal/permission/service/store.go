package service

import (
	"context"
	"time"

	"github.com/allisson/walletguard/internal/errors"
	"github.com/allisson/walletguard/internal/pushdrop"
	"github.com/allisson/walletguard/permissions"
	"github.com/allisson/walletguard/wallet"
)

// Bookkeeping labels attached to every action created on behalf of an
// originator. They drive the monthly spending tally.
const (
	originatorLabelPrefix = "admin originator "
	monthLabelPrefix      = "admin month "
)

// OriginatorLabel returns the action label recording which originator caused
// an action.
func OriginatorLabel(originator string) string {
	return originatorLabelPrefix + originator
}

// MonthLabel returns the action label recording the calendar month an action
// was created in.
func MonthLabel(month string) string {
	return monthLabelPrefix + month
}

// MonthTag formats t as the UTC calendar month used in spending labels and
// tallies.
func MonthTag(t time.Time) string {
	return t.UTC().Format("2006-01")
}

const storePageSize = 100

// Store reads permission tokens out of the admin baskets. Token outputs are
// decoded with the token script format, their fields decrypted, and matched
// against request discriminators. Expired tokens are returned as-is;
// deciding what expiry means is the policy engine's job.
type Store struct {
	wallet     wallet.Interface
	cipher     *Cipher
	originator string
}

// NewStore returns a store reading tokens as the administrative originator.
func NewStore(w wallet.Interface, cipher *Cipher, adminOriginator string) *Store {
	return &Store{wallet: w, cipher: cipher, originator: adminOriginator}
}

// FindToken returns the token matching the request's discriminators exactly,
// or permissions.ErrPermissionNotFound when no matching token exists.
// Outputs that are not decodable tokens are skipped.
func (s *Store) FindToken(ctx context.Context, req permissions.Request) (*permissions.Token, error) {
	var found *permissions.Token
	err := s.scan(ctx, permissions.AdminBasketFor(req.Type), tokenTags(req), func(tok *permissions.Token) bool {
		if matches(tok, req) {
			found = tok
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, permissions.ErrPermissionNotFound
	}
	return found, nil
}

// ListTokens returns all tokens of the given type, optionally filtered by
// originator (empty means all originators).
func (s *Store) ListTokens(ctx context.Context, typ permissions.Type, originator string) ([]*permissions.Token, error) {
	var tags []string
	if originator != "" {
		tags = []string{"originator " + originator}
	}
	var tokens []*permissions.Token
	err := s.scan(ctx, permissions.AdminBasketFor(typ), tags, func(tok *permissions.Token) bool {
		if originator == "" || tok.Originator == originator {
			tokens = append(tokens, tok)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// scan walks the basket page by page, decoding each output into a token and
// handing it to visit. Tags narrow the walk to outputs carrying all of them.
// Returning false from visit stops the scan.
func (s *Store) scan(ctx context.Context, basket string, tags []string, visit func(*permissions.Token) bool) error {
	if basket == "" {
		return errors.Wrap(ErrUnknownTokenFormat, "no basket for permission type")
	}
	typ := typeForBasket(basket)

	for offset := 0; ; offset += storePageSize {
		res, err := s.wallet.ListOutputs(ctx, wallet.ListOutputsArgs{
			Basket:       basket,
			Tags:         tags,
			TagQueryMode: wallet.QueryModeAll,
			Include:      wallet.IncludeEntireTransactions,
			Limit:        storePageSize,
			Offset:       offset,
		}, s.originator)
		if err != nil {
			return errors.Wrapf(err, "list outputs in %q", basket)
		}

		for _, out := range res.Outputs {
			tok, err := s.decodeOutput(ctx, typ, out, res.BEEF)
			if err != nil {
				continue
			}
			if !visit(tok) {
				return nil
			}
		}

		if len(res.Outputs) < storePageSize || offset+len(res.Outputs) >= res.TotalOutputs {
			return nil
		}
	}
}

func (s *Store) decodeOutput(ctx context.Context, typ permissions.Type, out wallet.Output, beef []byte) (*permissions.Token, error) {
	data, err := pushdrop.Decode(out.LockingScript)
	if err != nil {
		return nil, err
	}

	plain := make([][]byte, len(data.Fields))
	for i, f := range data.Fields {
		plain[i] = s.cipher.Decrypt(ctx, f)
	}

	tok, err := parseTokenFields(typ, plain)
	if err != nil {
		return nil, err
	}
	tok.TxID = out.Outpoint.TxID
	tok.OutputIndex = out.Outpoint.Index
	tok.OutputScript = out.LockingScript
	tok.Satoshis = out.Satoshis
	tok.Tx = beef
	return tok, nil
}

// SpentInMonth tallies the net satoshis already spent by originator in the
// given calendar month, by summing the actions labeled with the originator
// and month bookkeeping labels.
func (s *Store) SpentInMonth(ctx context.Context, originator, month string) (int64, error) {
	var total int64
	for offset := 0; ; offset += storePageSize {
		res, err := s.wallet.ListActions(ctx, wallet.ListActionsArgs{
			Labels:         []string{OriginatorLabel(originator), MonthLabel(month)},
			LabelQueryMode: wallet.QueryModeAll,
			Limit:          storePageSize,
			Offset:         offset,
		}, s.originator)
		if err != nil {
			return 0, errors.Wrapf(err, "list actions for %q", originator)
		}
		for _, a := range res.Actions {
			total += a.Satoshis
		}
		if len(res.Actions) < storePageSize || offset+len(res.Actions) >= res.TotalActions {
			return total, nil
		}
	}
}

func typeForBasket(basket string) permissions.Type {
	switch basket {
	case permissions.BasketProtocolPermission:
		return permissions.TypeProtocol
	case permissions.BasketBasketAccess:
		return permissions.TypeBasket
	case permissions.BasketCertificateAccess:
		return permissions.TypeCertificate
	case permissions.BasketSpendingAuthorization:
		return permissions.TypeSpending
	default:
		return ""
	}
}
