// Package files manages the browser download directory.
//
// The portal always saves its export under the same file name, so at most
// one download exists at a time. Manager removes stale copies before a
// download starts, waits for Chrome to finish writing the new one and
// deletes it once the site has been published.
//
// Example usage:
//
//	manager := files.NewManager(cfg.Download.Dir, logger)
//	if err := manager.EnsureDirectory(); err != nil {
//	    return err
//	}
//	path := manager.Path(cfg.Download.FileName)
//	if err := manager.WaitForFile(ctx, path, time.Second); err != nil {
//	    // download never landed
//	}
package files
