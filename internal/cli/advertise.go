package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/germtb/sgmagent/internal/mls"
	"github.com/germtb/sgmagent/internal/rendezvous"
)

var advertiseCmd = &cobra.Command{
	Use:   "advertise",
	Short: "Publish a fresh key package other agents can add this one with",
	RunE:  runAdvertise,
}

func init() {
	rootCmd.AddCommand(advertiseCmd)
}

func runAdvertise(cmd *cobra.Command, args []string) error {
	st := sess.provider.State()

	kp, initPriv, err := mls.BuildKeyPackage(st.Pid, st.SignatureKeyPair, st.Ciphersuite, st.ProtocolVersion)
	if err != nil {
		return fmt.Errorf("cli: advertise: %w", err)
	}
	st.InitKeyPriv = initPriv
	st.SetKeyPackage(st.Pid, kp)

	payload, err := json.Marshal(kp)
	if err != nil {
		return fmt.Errorf("cli: advertise: marshal key package: %w", err)
	}
	msg := mls.Message{Kind: mls.MessageKindKeyPackage, Payload: payload}

	// index is loop-local and never written back to st.KeyPackageCounter:
	// that counter only advances on ingestion (Phase A), not on publish.
	// Writing it back here would let a collision with another agent's
	// not-yet-ingested key package jump this agent's counter past that
	// slot, skipping it forever (spec.md §4.5, §9).
	index := st.KeyPackageCounter
	for {
		key := rendezvous.KeyPackageKey(index)
		logrus.WithField("key", key).Info("cli: publishing key package")
		err := sess.adapter.PutChecked(key, msg.Marshal())
		if err == nil {
			break
		}
		if errors.Is(err, rendezvous.ErrKeyExists) {
			logrus.WithField("key", key).Warn("cli: key package slot occupied, retrying at next index")
			index++
			continue
		}
		return fmt.Errorf("cli: advertise: publish key package: %w", err)
	}

	fmt.Println(st.Pid)
	return nil
}
