package sandbox

import "strings"

// sandboxIDPlaceholder is replaced with the session id when the
// bootstrap script is injected into a built document.
const sandboxIDPlaceholder = "__SANDBOX_ID__"

// BootstrapScript returns the in-frame script for one session. It
// reports content height to the host and wires action buttons, and it
// re-scans for markers added after the initial render.
func BootstrapScript(sandboxID string) string {
	return strings.ReplaceAll(bootstrapSource, sandboxIDPlaceholder, sandboxID)
}

// The script posts two message shapes upward:
//
//	{type: "sandbox-resize", id, height}
//	{type: "tab-action", id, action, docId|quoteId|attachmentId, label, variant, source}
//
// Both go to parent and top so nested frames still reach the host.
const bootstrapSource = `(function () {
  "use strict";
  var SANDBOX_ID = "__SANDBOX_ID__";
  var MIN_HEIGHT = 48;
  var FALLBACK_LABEL = "查看详情";

  function post(msg) {
    try { window.parent.postMessage(msg, "*"); } catch (e) {}
    try {
      if (window.top !== window.parent) { window.top.postMessage(msg, "*"); }
    } catch (e) {}
  }

  function contentHeight() {
    var b = document.body, d = document.documentElement;
    return Math.max(
      b ? b.scrollHeight : 0, b ? b.offsetHeight : 0,
      d ? d.scrollHeight : 0, d ? d.offsetHeight : 0,
      MIN_HEIGHT
    );
  }

  function reportHeight() {
    post({ type: "sandbox-resize", id: SANDBOX_ID, height: contentHeight() });
  }

  var ID_ATTRS = {
    "open-document": ["data-doc-id", "docId"],
    "open-quote": ["data-quote-id", "quoteId"],
    "open-attachment": ["data-attachment-id", "attachmentId"]
  };

  function actionMessage(el) {
    var action = el.getAttribute("data-xta-action") || el.getAttribute("data-action");
    var attrs = ID_ATTRS[action];
    if (!attrs) { return null; }
    var target = el.getAttribute("data-xta-target") || el.getAttribute(attrs[0]);
    if (!target) { return null; }
    var msg = {
      type: "tab-action",
      id: SANDBOX_ID,
      action: action,
      label: el.getAttribute("data-xta-label") || el.getAttribute("data-label") ||
        (el.textContent || "").trim() || FALLBACK_LABEL,
      variant: el.getAttribute("data-xta-variant") || el.getAttribute("data-variant") || "",
      source: "html-sandbox"
    };
    msg[attrs[1]] = target;
    return msg;
  }

  // Markers added after the initial render (the server pass only sees
  // stored content) are converted here. Processed elements are tagged
  // so repeated scans stay idempotent.
  function scanMarkers() {
    var markers = document.querySelectorAll("x-tab-action:not([data-xta-processed])");
    for (var i = 0; i < markers.length; i++) {
      var marker = markers[i];
      marker.setAttribute("data-xta-processed", "true");
      var msg = actionMessage(marker);
      if (!msg) { continue; }
      var btn = document.createElement("button");
      btn.type = "button";
      btn.className = "xta-btn xta-" + msg.action.replace("open-", "");
      btn.setAttribute("data-xta-processed", "true");
      btn.setAttribute("data-xta-action", msg.action);
      btn.setAttribute("data-xta-target", msg.docId || msg.quoteId || msg.attachmentId);
      btn.setAttribute("data-xta-label", msg.label);
      btn.setAttribute("data-xta-variant", msg.variant);
      btn.textContent = msg.label;
      marker.parentNode.replaceChild(btn, marker);
    }
  }

  // One delegated listener, so re-scans never stack handlers.
  document.addEventListener("click", function (ev) {
    var el = ev.target;
    while (el && el !== document) {
      if (el.classList && el.classList.contains("xta-btn")) {
        var msg = actionMessage(el);
        if (msg) { post(msg); }
        ev.preventDefault();
        return;
      }
      el = el.parentNode;
    }
  }, true);

  function boot() {
    scanMarkers();
    reportHeight();

    // Late layout passes (fonts, async styles) settle within a few
    // hundred milliseconds; re-report so the host converges.
    setTimeout(reportHeight, 50);
    setTimeout(reportHeight, 150);
    setTimeout(reportHeight, 300);

    var images = document.getElementsByTagName("img");
    for (var i = 0; i < images.length; i++) {
      images[i].addEventListener("load", reportHeight);
      images[i].addEventListener("error", reportHeight);
    }

    if (typeof ResizeObserver !== "undefined") {
      new ResizeObserver(reportHeight).observe(document.documentElement);
    } else {
      setInterval(reportHeight, 500);
    }

    if (typeof MutationObserver !== "undefined") {
      new MutationObserver(function () {
        scanMarkers();
        reportHeight();
      }).observe(document.body, { childList: true, subtree: true });
    }
  }

  if (document.readyState === "loading") {
    document.addEventListener("DOMContentLoaded", boot);
  } else {
    boot();
  }
})();`
