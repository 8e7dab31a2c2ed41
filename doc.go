// Package appkernel is an embeddable application kernel that hosts
// independently-authored plugins, resolves their configuration from
// command-line and file sources, and drives them through a well-defined
// lifecycle inside a single long-running process.
//
// # Architecture
//
// The kernel is assembled from small packages, leaves first:
//
//   - option: the merged option schema. Each plugin declares
//     command-line-only and config-file option groups; the kernel merges
//     them with the application-level options into one schema, rejecting
//     long-name collisions. Values are a closed tagged variant with
//     per-variant equality, parsing and config-literal rendering.
//   - config: the configuration-merge engine. Command-line arguments and
//     the config file are parsed against the schema and layered in
//     ascending priority (defaults, file, command line). Config-file
//     values identical to the declared default are reported in a single
//     wrapped diagnostic. The default-config template is rendered for
//     --print-default-config and to synthesize a missing config.ini.
//   - plugin: the plugin contract. Plugins embed plugin.Base and expose
//     declare/initialize/startup/shutdown hooks plus declared
//     dependencies; the lifecycle controller owns every transition.
//   - kernel: the registry and lifecycle controller. Plugins advance
//     registered -> initialized -> started -> stopped; initialization is
//     a depth-first pass over declared dependencies, startup failures
//     unwind whatever already started, and shutdown is a two-pass
//     reverse-order drain that keeps siblings visible in the registry
//     until every hook has run.
//   - runloop: a single-threaded reactor. Plugins post work onto the
//     loop; SIGINT, SIGTERM and SIGPIPE dispatch the quit action through
//     the loop, and the kernel shuts down synchronously once it stops.
//   - metric: the Prometheus registry carrying the kernel's lifecycle
//     metrics.
//
// # Usage
//
// A host constructs exactly one kernel, registers its plugins, and runs:
//
//	k := kernel.New(kernel.Options{AppName: "mydaemon"})
//	_ = k.Register(natsbridge.New())
//	_ = k.Register(metricserver.New())
//	if err := k.Run(os.Args[1:]); err != nil {
//		log.Fatal(err)
//	}
//
// The built-in plugins under plugins/ are reference implementations; the
// kernel itself contains no plugin business logic.
package appkernel
