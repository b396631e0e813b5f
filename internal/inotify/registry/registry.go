// Package registry keeps track of which alias asked for which path and which
// watch descriptor the kernel handed out for it.
//
// A Registry is not safe for concurrent use; its owner serializes access.
package registry

import (
	"errors"
	"fmt"

	"github.com/dominicbreuker/notifywatch/internal/inotify/sys"
)

// Request is what a caller asked to watch.
type Request struct {
	Path  string
	Flags uint32
}

type DuplicateAliasError struct {
	Alias    string
	Existing Request
}

func (e *DuplicateAliasError) Error() string {
	return fmt.Sprintf("a watch request is already registered for alias %q (path %s)", e.Alias, e.Existing.Path)
}

// ActiveAliasError is returned when an operation needs a pending alias but
// the alias already holds a descriptor.
type ActiveAliasError struct {
	Alias      string
	Descriptor int
}

func (e *ActiveAliasError) Error() string {
	return fmt.Sprintf("alias %q is active with descriptor %d", e.Alias, e.Descriptor)
}

// SharedDescriptorError means the kernel handed out a descriptor that another
// alias already owns, which happens when one path is added twice on a
// channel.
type SharedDescriptorError struct {
	Alias      string
	Owner      string
	Descriptor int
}

func (e *SharedDescriptorError) Error() string {
	return fmt.Sprintf("alias %q resolves to descriptor %d already owned by alias %q", e.Alias, e.Descriptor, e.Owner)
}

type UnknownAliasError struct {
	Alias string
}

func (e *UnknownAliasError) Error() string {
	return fmt.Sprintf("no watch registered for alias %q", e.Alias)
}

// UnknownDescriptorError means an event arrived for a descriptor that no
// active alias owns. It points at a race with removal or a desynchronized
// registry.
//
// Removed is set when the descriptor was dropped by Deactivate and the event
// is the kernel's IN_IGNORED confirming it.
type UnknownDescriptorError struct {
	Descriptor int
	Mask       uint32 // event mask, filled in by the caller when known
	Removed    bool
}

func (e *UnknownDescriptorError) Error() string {
	if e.Removed {
		return fmt.Sprintf("watch descriptor %d already removed", e.Descriptor)
	}
	if e.Mask != 0 {
		return fmt.Sprintf("unknown watch descriptor: %d (mask %#x)", e.Descriptor, e.Mask)
	}
	return fmt.Sprintf("unknown watch descriptor: %d", e.Descriptor)
}

type Registry struct {
	sys sys.Syscalls

	order       []string
	requests    map[string]Request
	descriptors map[string]int
	aliases     map[int]string
	// removed holds descriptors dropped by Deactivate whose IN_IGNORED
	// confirmation has not been seen yet.
	removed map[int]struct{}
}

func New(s sys.Syscalls) *Registry {
	return &Registry{
		sys:         s,
		requests:    make(map[string]Request),
		descriptors: make(map[string]int),
		aliases:     make(map[int]string),
		removed:     make(map[int]struct{}),
	}
}

// Register stores a pending request for alias.
func (r *Registry) Register(alias, path string, flags uint32) error {
	if existing, ok := r.requests[alias]; ok {
		return &DuplicateAliasError{Alias: alias, Existing: existing}
	}
	r.requests[alias] = Request{Path: path, Flags: flags}
	r.order = append(r.order, alias)
	return nil
}

// Unregister drops a request that was never activated.
func (r *Registry) Unregister(alias string) error {
	if _, ok := r.requests[alias]; !ok {
		return &UnknownAliasError{Alias: alias}
	}
	if wd, active := r.descriptors[alias]; active {
		return &ActiveAliasError{Alias: alias, Descriptor: wd}
	}
	r.drop(alias)
	return nil
}

// Activate adds the watch for a registered alias to channel fd.
func (r *Registry) Activate(fd int, alias string) error {
	req, ok := r.requests[alias]
	if !ok {
		return &UnknownAliasError{Alias: alias}
	}
	if wd, active := r.descriptors[alias]; active {
		return &ActiveAliasError{Alias: alias, Descriptor: wd}
	}

	wd, err := r.sys.AddWatch(fd, req.Path, req.Flags)
	if err != nil {
		return err
	}
	// The kernel returns the existing descriptor when a path is added twice
	// on one channel. Two aliases on one descriptor would break Resolve.
	if owner, taken := r.aliases[wd]; taken {
		// Adding the path again replaced the owner's mask; put it back.
		err := error(&SharedDescriptorError{Alias: alias, Owner: owner, Descriptor: wd})
		prev := r.requests[owner]
		if _, rerr := r.sys.AddWatch(fd, prev.Path, prev.Flags); rerr != nil {
			err = errors.Join(err, fmt.Errorf("restoring watch of alias %q: %w", owner, rerr))
		}
		return err
	}
	delete(r.removed, wd)
	r.descriptors[alias] = wd
	r.aliases[wd] = alias
	return nil
}

// Deactivate removes the watch for an active alias from channel fd. The
// request and both directions of the descriptor mapping go away together,
// and only if the kernel accepted the removal.
func (r *Registry) Deactivate(fd int, alias string) error {
	wd, ok := r.descriptors[alias]
	if !ok {
		return &UnknownAliasError{Alias: alias}
	}
	if err := r.sys.RemoveWatch(fd, wd); err != nil {
		return err
	}
	r.drop(alias)
	r.removed[wd] = struct{}{}
	return nil
}

// ConfirmRemoval reports whether wd was removed by Deactivate and is still
// waiting for the kernel's IN_IGNORED. A confirmed descriptor is forgotten.
func (r *Registry) ConfirmRemoval(wd int) bool {
	if _, ok := r.removed[wd]; !ok {
		return false
	}
	delete(r.removed, wd)
	return true
}

// Release forgets an active alias whose watch the kernel has already
// dropped on its own, which it announces with an IN_IGNORED event.
func (r *Registry) Release(alias string) {
	r.drop(alias)
}

// Resolve maps a descriptor from an event back to its alias.
func (r *Registry) Resolve(wd int) (string, error) {
	alias, ok := r.aliases[wd]
	if !ok {
		return "", &UnknownDescriptorError{Descriptor: wd}
	}
	return alias, nil
}

// Forget discards every descriptor, leaving requests pending. It is used once
// the channel is gone and the kernel-side watches with it.
func (r *Registry) Forget() {
	r.descriptors = make(map[string]int)
	r.aliases = make(map[int]string)
	r.removed = make(map[int]struct{})
}

// Pending returns the aliases without a descriptor in registration order.
func (r *Registry) Pending() []string {
	pending := make([]string, 0, len(r.order))
	for _, alias := range r.order {
		if _, active := r.descriptors[alias]; !active {
			pending = append(pending, alias)
		}
	}
	return pending
}

// Aliases returns every registered alias in registration order.
func (r *Registry) Aliases() []string {
	aliases := make([]string, len(r.order))
	copy(aliases, r.order)
	return aliases
}

func (r *Registry) Request(alias string) (Request, bool) {
	req, ok := r.requests[alias]
	return req, ok
}

func (r *Registry) Descriptor(alias string) (int, bool) {
	wd, ok := r.descriptors[alias]
	return wd, ok
}

func (r *Registry) NumActive() int {
	return len(r.descriptors)
}

func (r *Registry) drop(alias string) {
	if wd, ok := r.descriptors[alias]; ok {
		delete(r.aliases, wd)
		delete(r.descriptors, alias)
	}
	delete(r.requests, alias)
	for i, a := range r.order {
		if a == alias {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}
