package scraper

// the scrapers in this repo read apps that render their data into the
// page itself rather than exposing an api. each one follows the same
// shape:
// 1. navigate to the page that would show the data to a human.
// 2. wait until the page is "ready": either the embedded payload is
//    present or a login challenge is.
// 3. clear the login challenge at most once per scrape, the session
//    cookies carry every later page.
// 4. pull the embedded javascript assignment out of the page and
//    decode it into a typed payload, failing the whole page when a
//    field the flattener relies on is absent.
// 5. flatten the payload into the flat record model and move on to
//    the next page.

// the session object is the only stateful piece (cookies, current
// page). everything downstream of it is a pure transformation of one
// page's payload, which is what makes the scrapers testable with a
// canned fake session.
