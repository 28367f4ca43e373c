//go:build linux

package watch

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// remoteMagic maps statfs f_type values of remote filesystems to the names
// isNetworkFilesystem knows.
var remoteMagic = map[uint32]string{
	unix.NFS_SUPER_MAGIC:  "nfs",
	unix.CIFS_SUPER_MAGIC: "cifs",
	unix.SMB_SUPER_MAGIC:  "smbfs",
	unix.SMB2_SUPER_MAGIC: "smb2",
	unix.AFS_SUPER_MAGIC:  "afs",
	unix.CEPH_SUPER_MAGIC: "ceph",
	unix.CODA_SUPER_MAGIC: "coda",
	unix.V9FS_MAGIC:       "9p",
}

func detectFilesystemType(path string) (string, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return "", fmt.Errorf("statfs %q: %w", path, err)
	}
	// Type is int32 on some 32-bit targets; the magic numbers are 32 bits.
	return fsNameForMagic(uint32(st.Type)), nil
}

func fsNameForMagic(magic uint32) string {
	if name, ok := remoteMagic[magic]; ok {
		return name
	}
	return fmt.Sprintf("0x%x", magic)
}
