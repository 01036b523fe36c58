package identity

// CredentialVerifier is the boundary to an external verifier that
// attests NFT (or other on-chain) ownership. On-chain lookups are out
// of scope here: the core consumes a verified credentials list
// pre-populated by an external verifier. This interface is that
// consumption point; the core never talks to a chain directly.
type CredentialVerifier interface {
	// IsVerified reports whether assetID under issuerContract (optionally
	// narrowed by schema) is attested as owned by the holder identified
	// by did.
	IsVerified(did, issuerContract, assetID, schema string) bool
}

// StaticCredentialVerifier is a CredentialVerifier backed by a
// pre-populated in-memory set, suitable for tests and for deployments
// that receive verified-credential updates out of band (e.g. a webhook
// from an external indexer) rather than querying a chain per request.
type StaticCredentialVerifier struct {
	verified map[string]bool
}

// NewStaticCredentialVerifier builds a verifier with an empty verified set.
func NewStaticCredentialVerifier() *StaticCredentialVerifier {
	return &StaticCredentialVerifier{verified: make(map[string]bool)}
}

func credentialKey(did, issuerContract, assetID, schema string) string {
	return did + "|" + issuerContract + "|" + assetID + "|" + schema
}

// MarkVerified records that did's (issuerContract, assetID, schema)
// credential has been externally verified.
func (v *StaticCredentialVerifier) MarkVerified(did, issuerContract, assetID, schema string) {
	v.verified[credentialKey(did, issuerContract, assetID, schema)] = true
}

// IsVerified implements CredentialVerifier.
func (v *StaticCredentialVerifier) IsVerified(did, issuerContract, assetID, schema string) bool {
	return v.verified[credentialKey(did, issuerContract, assetID, schema)]
}
