package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/onflow/txhistory/model/ledger"
	"github.com/onflow/txhistory/module/signature"
)

// keyFile holds the private keys of the validators signing an epoch. It is
// how bootstrap hands the genesis validators to simulate.
type keyFile struct {
	Waypoint   string            `json:"waypoint"`
	Epoch      uint64            `json:"epoch"`
	Validators []encodableSigner `json:"validators"`
}

type encodableSigner struct {
	Address     ledger.Address `json:"address"`
	PrivateKey  string         `json:"private_key"`
	VotingPower uint64         `json:"voting_power"`
}

func newKeyFile(waypoint ledger.Waypoint, epoch uint64, signers []*signature.LocalSigner) *keyFile {
	kf := &keyFile{
		Waypoint:   waypoint.String(),
		Epoch:      epoch,
		Validators: make([]encodableSigner, 0, len(signers)),
	}
	for _, signer := range signers {
		kf.Validators = append(kf.Validators, encodableSigner{
			Address:     signer.Address(),
			PrivateKey:  hex.EncodeToString(signer.EncodePrivateKey()),
			VotingPower: 1,
		})
	}
	return kf
}

func (kf *keyFile) signers() ([]*signature.LocalSigner, error) {
	signers := make([]*signature.LocalSigner, 0, len(kf.Validators))
	for _, v := range kf.Validators {
		encoded, err := hex.DecodeString(v.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("could not decode key of %s: %w", v.Address, err)
		}
		signer, err := signature.DecodeLocalSigner(v.Address, encoded)
		if err != nil {
			return nil, fmt.Errorf("could not load key of %s: %w", v.Address, err)
		}
		signers = append(signers, signer)
	}
	return signers, nil
}

func generateSigners(n int) ([]*signature.LocalSigner, error) {
	signers := make([]*signature.LocalSigner, 0, n)
	for i := 0; i < n; i++ {
		signer, err := signature.GenerateLocalSigner()
		if err != nil {
			return nil, err
		}
		signers = append(signers, signer)
	}
	return signers, nil
}

func validatorSet(signers []*signature.LocalSigner) (ledger.ValidatorSet, error) {
	infos := make([]ledger.ValidatorInfo, 0, len(signers))
	for _, signer := range signers {
		infos = append(infos, signer.ValidatorInfo(1))
	}
	return ledger.NewValidatorSet(infos)
}
