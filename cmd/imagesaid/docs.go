package main

// General API documentation for swaggo. Build with -tags=swagger to serve it.
//
// @title           imagesaid API
// @version         1.0
// @description     Suggests file names for images with a local vision model and renames them.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
