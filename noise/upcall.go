package noise

// Upcall is implemented by the host to give the core access to its peer
// table and session index space. Implementations must be safe for concurrent
// use and must not call back into a Remote: IndexSet and IndexDrop run while
// the Remote holds its handshake or keypair-set lock.
type Upcall interface {
	// RemoteGet returns the Remote for a static public key, or nil.
	RemoteGet(public [KeySize]byte) *Remote
	// IndexSet leases a fresh index that routes to r.
	IndexSet(r *Remote) (uint32, error)
	// IndexDrop releases an index previously returned by IndexSet.
	IndexDrop(index uint32)
}
