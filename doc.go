// Package ustar reads and writes tar archives in the classic fixed-field
// USTAR layout: 512-byte headers, octal numeric fields, checksummed and
// padded output that standard tar consumers accept.
//
// The package deliberately models only the USTAR-compatible subset.
// PAX extended headers, GNU long names, sparse files, and multi-volume
// archives are out of scope.
//
// An [Archive] is bound to a [Stream] backend and an access mode at
// construction and drives all I/O through it. Backends exist for files
// and seekable values ([OpenFile], [NewStream]), in-memory buffers
// ([MemStream]), and compressed containers ([OpenZstd], [NewZstdWriter],
// [OpenLZ4], [NewLZ4Writer]).
//
// # Reading
//
//	a, err := ustar.OpenFile("data.tar", ustar.ModeRead)
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//	hdr, err := a.Find("etc/config.json")
//	if err != nil {
//	    return err
//	}
//	buf := make([]byte, hdr.Size)
//	_, err = a.ReadPayload(buf)
//
// # Writing
//
//	a, err := ustar.OpenFile("data.tar", ustar.ModeWrite)
//	if err != nil {
//	    return err
//	}
//	if err := a.WriteFileHeader("hello.txt", 5); err != nil {
//	    return err
//	}
//	if _, err := a.WritePayload([]byte("hello")); err != nil {
//	    return err
//	}
//	return a.Close() // finalizes the archive
//
// A single Archive must not be driven from more than one goroutine;
// cursor state is mutated in place with no synchronization.
package ustar
