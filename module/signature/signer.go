package signature

import (
	"crypto/rand"
	"fmt"

	"github.com/onflow/flow-go/crypto"

	"github.com/onflow/txhistory/model/ledger"
)

// LocalSigner signs ledger infos on behalf of one validator.
type LocalSigner struct {
	address ledger.Address
	key     crypto.PrivateKey
}

func NewLocalSigner(address ledger.Address, key crypto.PrivateKey) *LocalSigner {
	return &LocalSigner{
		address: address,
		key:     key,
	}
}

// GenerateLocalSigner creates a signer with a fresh key. Its address is
// derived from the public key.
func GenerateLocalSigner() (*LocalSigner, error) {
	seed := make([]byte, crypto.KeyGenSeedMinLen)
	_, err := rand.Read(seed)
	if err != nil {
		return nil, fmt.Errorf("could not generate seed: %w", err)
	}
	key, err := crypto.GeneratePrivateKey(DefaultSigningAlgorithm, seed)
	if err != nil {
		return nil, fmt.Errorf("could not generate key: %w", err)
	}
	return NewLocalSigner(AddressFromPublicKey(key.PublicKey()), key), nil
}

// DecodeLocalSigner restores a signer from an encoded private key.
func DecodeLocalSigner(address ledger.Address, encodedKey []byte) (*LocalSigner, error) {
	key, err := crypto.DecodePrivateKey(DefaultSigningAlgorithm, encodedKey)
	if err != nil {
		return nil, fmt.Errorf("could not decode private key: %w", err)
	}
	return NewLocalSigner(address, key), nil
}

// AddressFromPublicKey returns the last bytes of the SHA3-256 digest of the
// encoded key.
func AddressFromPublicKey(pk crypto.PublicKey) ledger.Address {
	return ledger.BytesToAddress(NewLedgerInfoHasher().ComputeHash(pk.Encode()))
}

func (s *LocalSigner) Address() ledger.Address {
	return s.address
}

func (s *LocalSigner) PublicKey() crypto.PublicKey {
	return s.key.PublicKey()
}

// EncodePrivateKey returns the encoded private key, see DecodeLocalSigner.
func (s *LocalSigner) EncodePrivateKey() []byte {
	return s.key.Encode()
}

// ValidatorInfo describes the signer as a validator with the given voting power.
func (s *LocalSigner) ValidatorInfo(votingPower uint64) ledger.ValidatorInfo {
	return ledger.ValidatorInfo{
		Address:     s.address,
		PublicKey:   s.key.PublicKey(),
		VotingPower: votingPower,
	}
}

// Sign returns the signature of the ledger info.
func (s *LocalSigner) Sign(li ledger.LedgerInfo) (crypto.Signature, error) {
	msg, err := li.SigningBytes()
	if err != nil {
		return nil, err
	}
	sig, err := s.key.Sign(msg, NewLedgerInfoHasher())
	if err != nil {
		return nil, fmt.Errorf("could not sign ledger info: %w", err)
	}
	return sig, nil
}

// SignInto signs the ledger info of liws and adds the signature to it.
func (s *LocalSigner) SignInto(liws *ledger.LedgerInfoWithSignatures) error {
	sig, err := s.Sign(liws.LedgerInfo)
	if err != nil {
		return err
	}
	liws.AddSignature(s.address, sig)
	return nil
}
