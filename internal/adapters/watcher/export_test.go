package watcher

// WatchDirs exposes watchDirs for tests.
var WatchDirs = watchDirs

// ConvertEvent exposes convertEvent for tests.
var ConvertEvent = convertEvent
