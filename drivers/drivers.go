// Package drivers registers every built-in drivekit driver. Import it for its
// side effects:
//
//	import _ "github.com/gobeaver/drivekit/drivers"
package drivers

import (
	_ "github.com/gobeaver/drivekit/driver/azure"
	_ "github.com/gobeaver/drivekit/driver/gcs"
	_ "github.com/gobeaver/drivekit/driver/local"
	_ "github.com/gobeaver/drivekit/driver/memory"
	_ "github.com/gobeaver/drivekit/driver/s3"
	_ "github.com/gobeaver/drivekit/driver/sftp"
	_ "github.com/gobeaver/drivekit/driver/zip"
)
