/*
Package sandbox builds and exercises iframe documents for rendered
rich content.

# Overview

Stored content reaches browsers inside a sandboxed iframe. This
package produces the complete document that frame loads:

 1. Sanitize: bluemonday UGC policy, extended to let action markers
    (<x-tab-action>) survive.
 2. Marker pass: unprocessed markers become styled buttons carrying
    their action data; malformed markers are tagged and skipped, and
    the pass is idempotent.
 3. Hardening: anchors get target="_blank", and those without an
    explicit rel get rel="noopener noreferrer", so content cannot
    navigate or reach back to the host.
 4. Bootstrap: an injected script reports content height and posts
    tab-action messages upward when buttons are clicked.

# Dry runs

The same dispatch path can be executed server side. A goja runtime
(with a Pool for reuse) runs PreviewScript against a DOM proxy of the
built document, capturing the messages a real click would emit. The
runtime exposes no host access: console is captured, timers are
no-ops, and postMessage records instead of delivering.

# Usage

	builder := NewBuilder(DefaultConfig())
	doc, markers, err := builder.Build(sandboxID, content)

	script, _ := PreviewScript(sandboxID, markers)
	result, err := pool.Execute(ctx, script, dom)
*/
package sandbox
