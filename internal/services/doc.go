// Package services wraps the festival backend REST API.
//
// [APIService] owns the HTTP plumbing. The domain services ([UserService], [FestivalService], [JobService]
// and [ReviewService]) each cover one area of the API and return validated models. Authentication is not
// handled here: the festival, job and review services expect an [*http.Client] whose transport attaches
// credentials (see the session package), while [UserService] runs on a plain client because it performs
// the login and refresh calls that transport depends on.
package services
