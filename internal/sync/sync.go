// Package sync drives the three-phase rendezvous ingestion loop every
// invocation runs before executing its command: pull new key packages,
// pull new welcomes, then pull new commits for every group the agent
// already belongs to (spec.md §4.4, grounded line-for-line on
// original_source/.../main.rs's three download loops).
package sync

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/germtb/sgmagent/internal/mls"
	"github.com/germtb/sgmagent/internal/provider"
	"github.com/germtb/sgmagent/internal/rendezvous"
)

// Run ingests every key package, welcome, and commit the rendezvous store
// has published since the agent's last invocation, mutating p's state and
// storage in place. It never returns an error for ordinary "nothing more
// to fetch" or "not for us" conditions, and malformed welcomes or commits
// are logged and skipped; only a transport error, a storage error, or a
// key package that fails to decode or validate is propagated.
func Run(adapter rendezvous.StorageAdapter, p *provider.Provider) error {
	if err := ingestKeyPackages(adapter, p); err != nil {
		return err
	}
	if err := ingestWelcomes(adapter, p); err != nil {
		return err
	}
	return ingestCommits(adapter, p)
}

// ingestKeyPackages is Phase A: drain every unseen "kp<N>" key, recording
// the latest key package on file per pid. An unparsable slot or one that
// fails MLS validation is fatal, not skipped: it indicates a corrupted or
// malicious slot, and the original implementation panics on exactly this
// condition rather than continuing past it (spec.md §4.4 Phase A step 4,
// §7; original_source/.../main.rs:231-238).
func ingestKeyPackages(adapter rendezvous.StorageAdapter, p *provider.Provider) error {
	st := p.State()
	for {
		key := rendezvous.KeyPackageKey(st.KeyPackageCounter)
		logrus.WithField("key", key).Debug("sync: fetching key package")
		raw, ok, err := adapter.Get(key)
		if err != nil {
			return err
		}
		if !ok {
			logrus.Debug("sync: no more key packages")
			return nil
		}
		st.KeyPackageCounter++

		msg, err := mls.UnmarshalMessage(raw)
		if err != nil {
			return fmt.Errorf("sync: %s: malformed key package message: %w", key, err)
		}
		if err := msg.ExpectKind(mls.MessageKindKeyPackage); err != nil {
			return fmt.Errorf("sync: %s: %w", key, err)
		}
		var kp mls.KeyPackage
		if err := json.Unmarshal(msg.Payload, &kp); err != nil {
			return fmt.Errorf("sync: %s: failed to decode key package: %w", key, err)
		}
		if err := kp.Validate(p.Ciphersuite(), p.ProtocolVersion()); err != nil {
			return fmt.Errorf("sync: %s: key package failed validation: %w", key, err)
		}
		logrus.WithField("pid", kp.Pid()).Info("sync: recorded key package")
		st.SetKeyPackage(kp.Pid(), kp)
	}
}

// ingestWelcomes is Phase B: drain every unseen "wm<N>" key, attempting
// to join each welcome with the agent's current init private key. A
// welcome that fails to decrypt is simply not addressed to us and is
// skipped rather than treated as an error (spec.md §4.4 Phase B step 3).
func ingestWelcomes(adapter rendezvous.StorageAdapter, p *provider.Provider) error {
	st := p.State()
	for {
		key := rendezvous.WelcomeMessageKey(st.WelcomeCounter)
		logrus.WithField("key", key).Debug("sync: fetching welcome")
		raw, ok, err := adapter.Get(key)
		if err != nil {
			return err
		}
		if !ok {
			logrus.Debug("sync: no more welcomes")
			return nil
		}
		st.WelcomeCounter++

		msg, err := mls.UnmarshalMessage(raw)
		if err != nil {
			logrus.WithError(err).Warn("sync: malformed welcome message, skipping")
			continue
		}
		group, err := mls.JoinFromWelcome(msg, st.InitKeyPriv)
		if err != nil {
			logrus.WithError(err).Debug("sync: welcome not intended for us, skipping")
			continue
		}
		if err := group.Save(p.Storage()); err != nil {
			return err
		}
		logrus.WithField("gid", group.GroupID()).Info("sync: joined group from welcome")
		st.AddGroupID(group.GroupID())
	}
}

// ingestCommits is Phase C: for every group the agent already belongs to,
// drain its content-derived "cm<hex>" commit chain, merging each commit
// in order. Eviction is detected two ways, exactly as
// original_source/.../main.rs distinguishes them: either the commit key
// itself cannot be derived because our own export is already gone
// ("evict"), or the fetched commit can be parsed but leaves our own leaf
// inactive ("UseAfterEviction") (spec.md §4.4 Phase C step 4).
func ingestCommits(adapter rendezvous.StorageAdapter, p *provider.Provider) error {
	st := p.State()
	for _, gid := range append([]string(nil), st.GroupIDs...) {
		if err := ingestGroupCommits(adapter, p, gid); err != nil {
			return err
		}
	}
	return nil
}

func ingestGroupCommits(adapter rendezvous.StorageAdapter, p *provider.Provider, gid string) error {
	st := p.State()
	group, ok, err := p.LoadGroup(gid)
	if err != nil {
		return err
	}
	if !ok {
		logrus.WithField("gid", gid).Warn("sync: group id on file but no group state, dropping")
		st.RemoveGroupID(gid)
		return nil
	}

	for {
		key, err := group.CommitKey()
		if err != nil {
			if isEvictionError(err) {
				logrus.WithField("gid", gid).Warn("sync: evicted from group, stopping commit download")
				group.Delete(p.Storage())
				st.RemoveGroupID(gid)
				return nil
			}
			logrus.WithError(err).WithField("gid", gid).Warn("sync: failed to derive commit key")
			return nil
		}

		logrus.WithField("key", key).Debug("sync: fetching commit")
		raw, ok, err := adapter.Get(key)
		if err != nil {
			return err
		}
		if !ok {
			logrus.WithField("gid", gid).Debug("sync: no more commits")
			return nil
		}

		msg, err := mls.UnmarshalMessage(raw)
		if err != nil {
			logrus.WithError(err).WithField("gid", gid).Warn("sync: malformed commit message")
			return nil
		}
		if err := group.ProcessCommit(msg); err != nil {
			if isEvictionError(err) {
				logrus.WithField("gid", gid).Warn("sync: evicted from group, stopping commit download")
				group.Delete(p.Storage())
				st.RemoveGroupID(gid)
				return nil
			}
			logrus.WithError(err).WithField("gid", gid).Warn("sync: failed to merge commit")
			return nil
		}
		logrus.WithFields(logrus.Fields{"gid": gid, "epoch": group.Epoch()}).Info("sync: merged commit")
		if err := group.Save(p.Storage()); err != nil {
			return err
		}
	}
}

// isEvictionError reports whether err carries one of the two sentinel
// substrings the MLS core uses to signal "you are no longer a member of
// this group" (spec.md §4.4, §9).
func isEvictionError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "evict") || strings.Contains(msg, "UseAfterEviction")
}

