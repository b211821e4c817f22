package wallet

// SecurityLevel classifies how a protocol's keys are scoped.
//
//	0 — open usage, no permission token required
//	1 — scoped to the application
//	2 — scoped to the application and counterparty
type SecurityLevel int

// ProtocolID identifies a protocol by security level and name.
type ProtocolID struct {
	SecurityLevel SecurityLevel
	Name          string
}

// QueryMode selects how multiple tag or label predicates combine.
type QueryMode string

const (
	// QueryModeAll matches records carrying every predicate.
	QueryModeAll QueryMode = "all"
	// QueryModeAny matches records carrying at least one predicate.
	QueryModeAny QueryMode = "any"
)

// IncludeMode selects how much supporting data a listing returns.
type IncludeMode string

const (
	// IncludeLockingScripts returns locking scripts only.
	IncludeLockingScripts IncludeMode = "locking scripts"
	// IncludeEntireTransactions returns full supporting transactions as a
	// bundle alongside the outputs.
	IncludeEntireTransactions IncludeMode = "entire transactions"
)

// CreateActionInput describes one input the caller explicitly supplies.
type CreateActionInput struct {
	Outpoint              Outpoint
	InputDescription      string
	UnlockingScript       []byte
	UnlockingScriptLength int
}

// CreateActionOutput describes one requested output.
type CreateActionOutput struct {
	LockingScript      []byte
	Satoshis           int64
	OutputDescription  string
	Basket             string
	CustomInstructions string
	Tags               []string
}

// CreateActionOptions tunes transaction creation. Nil pointers mean "wallet
// default".
type CreateActionOptions struct {
	// SignAndProcess, when true, asks the wallet to finalize and broadcast
	// instead of returning a signable transaction.
	SignAndProcess *bool
	// AcceptDelayedBroadcast, when true, allows the wallet to defer
	// broadcasting.
	AcceptDelayedBroadcast *bool
}

// CreateActionArgs is the full argument set for CreateAction.
type CreateActionArgs struct {
	Description string
	InputBEEF   []byte
	Inputs      []CreateActionInput
	Outputs     []CreateActionOutput
	Labels      []string
	Options     *CreateActionOptions
}

// SignableTransaction is a partially built transaction awaiting signatures,
// identified by an opaque reference.
type SignableTransaction struct {
	Tx        []byte
	Reference string
}

// CreateActionResult is either a finalized transaction (TxID/Tx set) or a
// signable transaction to complete via SignAction.
type CreateActionResult struct {
	TxID                string
	Tx                  []byte
	SignableTransaction *SignableTransaction
}

// SignActionSpend supplies the unlocking script for one input.
type SignActionSpend struct {
	UnlockingScript []byte
}

// SignActionArgs completes a signable transaction.
type SignActionArgs struct {
	Reference string
	Spends    map[uint32]SignActionSpend
	Options   *CreateActionOptions
}

// SignActionResult is the finalized transaction.
type SignActionResult struct {
	TxID string
	Tx   []byte
}

// AbortActionArgs abandons a signable transaction by reference.
type AbortActionArgs struct {
	Reference string
}

// AbortActionResult reports whether the abort succeeded.
type AbortActionResult struct {
	Aborted bool
}

// ListActionsArgs filters transactions by labels.
type ListActionsArgs struct {
	Labels         []string
	LabelQueryMode QueryMode
	IncludeInputs  bool
	IncludeOutputs bool
	Limit          int
	Offset         int
}

// ActionInput is one input of a listed action.
type ActionInput struct {
	SourceOutpoint   Outpoint
	SourceSatoshis   int64
	InputDescription string
}

// ActionOutput is one output of a listed action.
type ActionOutput struct {
	Satoshis           int64
	OutputDescription  string
	CustomInstructions string
	Basket             string
	Tags               []string
}

// Action is one listed transaction.
type Action struct {
	TxID        string
	Satoshis    int64
	Description string
	Labels      []string
	Inputs      []ActionInput
	Outputs     []ActionOutput
}

// ListActionsResult is the label-filtered action listing.
type ListActionsResult struct {
	TotalActions int
	Actions      []Action
}

// InternalizeProtocol selects how an internalized output is handled.
type InternalizeProtocol string

const (
	// InternalizeWalletPayment accepts the output as a payment.
	InternalizeWalletPayment InternalizeProtocol = "wallet payment"
	// InternalizeBasketInsertion inserts the output into a basket.
	InternalizeBasketInsertion InternalizeProtocol = "basket insertion"
)

// InsertionRemittance carries basket-insertion details for an internalized
// output.
type InsertionRemittance struct {
	Basket             string
	CustomInstructions string
	Tags               []string
}

// PaymentRemittance carries payment details for an internalized output.
type PaymentRemittance struct {
	DerivationPrefix  string
	DerivationSuffix  string
	SenderIdentityKey string
}

// InternalizeOutput describes one output of an internalized transaction.
type InternalizeOutput struct {
	OutputIndex         uint32
	Protocol            InternalizeProtocol
	InsertionRemittance *InsertionRemittance
	PaymentRemittance   *PaymentRemittance
}

// InternalizeActionArgs accepts an external transaction into the wallet.
type InternalizeActionArgs struct {
	Tx          []byte
	Description string
	Labels      []string
	Outputs     []InternalizeOutput
}

// InternalizeActionResult reports acceptance.
type InternalizeActionResult struct {
	Accepted bool
}

// ListOutputsArgs filters outputs by basket and tags.
type ListOutputsArgs struct {
	Basket       string
	Tags         []string
	TagQueryMode QueryMode
	Include      IncludeMode
	Limit        int
	Offset       int
}

// Output is one listed output.
type Output struct {
	Outpoint           Outpoint
	Satoshis           int64
	LockingScript      []byte
	Spendable          bool
	CustomInstructions string
	Tags               []string
}

// ListOutputsResult is the basket/tag-filtered output listing. BEEF carries
// the full supporting transactions when IncludeEntireTransactions was
// requested; parse it with ParseBundle.
type ListOutputsResult struct {
	TotalOutputs int
	BEEF         []byte
	Outputs      []Output
}

// RelinquishOutputArgs removes an output from a basket.
type RelinquishOutputArgs struct {
	Basket   string
	Outpoint Outpoint
}

// RelinquishOutputResult reports removal.
type RelinquishOutputResult struct {
	Relinquished bool
}

// GetPublicKeyArgs requests key revelation. IdentityKey requests the wallet's
// identity key; otherwise ProtocolID/KeyID/Counterparty select a derived key.
type GetPublicKeyArgs struct {
	IdentityKey      bool
	ProtocolID       *ProtocolID
	KeyID            string
	Counterparty     string
	Privileged       bool
	PrivilegedReason string
	ForSelf          bool
}

// GetPublicKeyResult carries the compressed public key in hex.
type GetPublicKeyResult struct {
	PublicKey string
}

// RevealCounterpartyKeyLinkageArgs reveals counterparty-level linkage to a
// verifier.
type RevealCounterpartyKeyLinkageArgs struct {
	Counterparty     string
	Verifier         string
	Privileged       bool
	PrivilegedReason string
}

// RevealCounterpartyKeyLinkageResult is the encrypted linkage payload.
type RevealCounterpartyKeyLinkageResult struct {
	EncryptedLinkage      []byte
	EncryptedLinkageProof []byte
	Prover                string
	Verifier              string
	Counterparty          string
}

// RevealSpecificKeyLinkageArgs reveals the linkage of one derived key.
type RevealSpecificKeyLinkageArgs struct {
	ProtocolID       ProtocolID
	KeyID            string
	Counterparty     string
	Verifier         string
	Privileged       bool
	PrivilegedReason string
}

// RevealSpecificKeyLinkageResult is the encrypted linkage payload.
type RevealSpecificKeyLinkageResult struct {
	EncryptedLinkage      []byte
	EncryptedLinkageProof []byte
	Prover                string
	Verifier              string
	Counterparty          string
}

// EncryptArgs encrypts plaintext under a derived key.
type EncryptArgs struct {
	ProtocolID       ProtocolID
	KeyID            string
	Counterparty     string
	Privileged       bool
	PrivilegedReason string
	Plaintext        []byte
}

// EncryptResult carries the ciphertext.
type EncryptResult struct {
	Ciphertext []byte
}

// DecryptArgs decrypts ciphertext under a derived key.
type DecryptArgs struct {
	ProtocolID       ProtocolID
	KeyID            string
	Counterparty     string
	Privileged       bool
	PrivilegedReason string
	Ciphertext       []byte
}

// DecryptResult carries the recovered plaintext.
type DecryptResult struct {
	Plaintext []byte
}

// CreateHMACArgs computes an HMAC over data.
type CreateHMACArgs struct {
	ProtocolID       ProtocolID
	KeyID            string
	Counterparty     string
	Privileged       bool
	PrivilegedReason string
	Data             []byte
}

// CreateHMACResult carries the HMAC.
type CreateHMACResult struct {
	HMAC []byte
}

// VerifyHMACArgs verifies an HMAC over data.
type VerifyHMACArgs struct {
	ProtocolID       ProtocolID
	KeyID            string
	Counterparty     string
	Privileged       bool
	PrivilegedReason string
	Data             []byte
	HMAC             []byte
}

// VerifyHMACResult reports validity.
type VerifyHMACResult struct {
	Valid bool
}

// CreateSignatureArgs signs data or a precomputed digest.
type CreateSignatureArgs struct {
	ProtocolID       ProtocolID
	KeyID            string
	Counterparty     string
	Privileged       bool
	PrivilegedReason string
	Data             []byte
	HashToSign       []byte
}

// CreateSignatureResult carries the DER signature.
type CreateSignatureResult struct {
	Signature []byte
}

// VerifySignatureArgs verifies a signature over data or a digest.
type VerifySignatureArgs struct {
	ProtocolID       ProtocolID
	KeyID            string
	Counterparty     string
	Privileged       bool
	PrivilegedReason string
	Data             []byte
	HashToVerify     []byte
	Signature        []byte
	ForSelf          bool
}

// VerifySignatureResult reports validity.
type VerifySignatureResult struct {
	Valid bool
}

// Certificate is an identity certificate held by the wallet.
type Certificate struct {
	Type               string
	Subject            string
	SerialNumber       string
	Certifier          string
	RevocationOutpoint Outpoint
	Signature          []byte
	Fields             map[string]string
}

// AcquireCertificateArgs obtains a certificate from a certifier.
type AcquireCertificateArgs struct {
	Type                string
	Certifier           string
	AcquisitionProtocol string
	Fields              map[string]string
	Privileged          bool
	PrivilegedReason    string
}

// ListCertificatesArgs filters held certificates.
type ListCertificatesArgs struct {
	Certifiers       []string
	Types            []string
	Privileged       bool
	PrivilegedReason string
	Limit            int
	Offset           int
}

// ListCertificatesResult is the certificate listing.
type ListCertificatesResult struct {
	TotalCertificates int
	Certificates      []Certificate
}

// ProveCertificateArgs creates a verifier-scoped keyring revealing selected
// fields.
type ProveCertificateArgs struct {
	Certificate      Certificate
	FieldsToReveal   []string
	Verifier         string
	Privileged       bool
	PrivilegedReason string
}

// ProveCertificateResult carries the keyring for the verifier.
type ProveCertificateResult struct {
	KeyringForVerifier map[string]string
}

// RelinquishCertificateArgs discards a certificate.
type RelinquishCertificateArgs struct {
	Type         string
	SerialNumber string
	Certifier    string
}

// RelinquishCertificateResult reports relinquishment.
type RelinquishCertificateResult struct {
	Relinquished bool
}

// DiscoverByIdentityKeyArgs resolves certificates by subject identity key.
type DiscoverByIdentityKeyArgs struct {
	IdentityKey string
	Limit       int
	Offset      int
}

// DiscoverByAttributesArgs resolves certificates by attribute values.
type DiscoverByAttributesArgs struct {
	Attributes map[string]string
	Limit      int
	Offset     int
}

// DiscoverCertificatesResult is the resolved certificate listing.
type DiscoverCertificatesResult struct {
	TotalCertificates int
	Certificates      []Certificate
}

// AuthenticatedResult reports authentication state.
type AuthenticatedResult struct {
	Authenticated bool
}

// GetHeightResult carries the current chain height.
type GetHeightResult struct {
	Height uint32
}

// GetHeaderArgs requests the header at a height.
type GetHeaderArgs struct {
	Height uint32
}

// GetHeaderResult carries a serialized block header.
type GetHeaderResult struct {
	Header []byte
}

// GetNetworkResult names the network ("mainnet" or "testnet").
type GetNetworkResult struct {
	Network string
}

// GetVersionResult carries the wallet implementation version.
type GetVersionResult struct {
	Version string
}
