package domain

// Zero wipes each buffer in place. Call it on plaintext key material once the
// owning operation is done with it.
func Zero(bufs ...[]byte) {
	for _, b := range bufs {
		clear(b)
	}
}
